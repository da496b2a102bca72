package service

import (
	"context"
	"strings"

	"tours/internal/models"
	"tours/internal/observability"
	"tours/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EngagementService records views, comments, and likes and keeps the
// per-tour counters in step with them.
type EngagementService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	metrics     *observability.Metrics
}

// AddCommentInput carries a new comment.
type AddCommentInput struct {
	PostID   uint   `json:"post_id" validate:"required"`
	AuthorID uint   `json:"author_id" validate:"required"`
	Content  string `json:"content" validate:"required,max=10000"`
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	metrics *observability.Metrics,
) *EngagementService {
	return &EngagementService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		metrics:     metrics,
	}
}

// RecordView counts one read of postID and returns the tour with its
// comments in creation order.
func (s *EngagementService) RecordView(ctx context.Context, postID uint) (*models.PostDetail, error) {
	span, ctx := observability.StartServiceSpan(ctx, "engagement", "RecordView",
		attribute.Int64("post_id", int64(postID)))
	defer span.End()

	if err := s.postRepo.IncrementReads(ctx, postID); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.metrics.RecordEngagement(observability.EngagementView)

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &models.PostDetail{Post: post, Comments: comments}, nil
}

// AddComment attaches a comment to an existing tour and increments its
// comment counter in the same transaction.
func (s *EngagementService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	span, ctx := observability.StartServiceSpan(ctx, "engagement", "AddComment",
		attribute.Int64("post_id", int64(in.PostID)))
	defer span.End()

	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.AuthorID,
		Content: in.Content,
	}
	if err := s.commentRepo.CreateForPost(ctx, comment); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.metrics.RecordEngagement(observability.EngagementComment)

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return created, nil
}

// Like records userID's like on postID. It reports whether a new like was
// stored; liking twice leaves the counter unchanged.
func (s *EngagementService) Like(ctx context.Context, postID, userID uint) (*models.Post, bool, error) {
	span, ctx := observability.StartServiceSpan(ctx, "engagement", "Like",
		attribute.Int64("post_id", int64(postID)))
	defer span.End()

	if userID == 0 {
		return nil, false, models.NewUnauthorizedError("Authorization required")
	}

	created, err := s.postRepo.AddLike(ctx, userID, postID)
	if err != nil {
		span.SetError(err)
		return nil, false, err
	}
	if created {
		s.metrics.RecordEngagement(observability.EngagementLike)
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	return post, created, nil
}

// ListComments returns the comments on an existing tour in creation order.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	span, ctx := observability.StartServiceSpan(ctx, "engagement", "ListComments",
		attribute.Int64("post_id", int64(postID)))
	defer span.End()

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
