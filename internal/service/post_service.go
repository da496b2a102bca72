package service

import (
	"context"
	"math"
	"strings"
	"time"

	"tours/internal/config"
	"tours/internal/models"
	"tours/internal/observability"
	"tours/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PostSettings tunes PostService behavior.
type PostSettings struct {
	// EditPolicy is config.EditPolicyAny or config.EditPolicyAuthor.
	EditPolicy       string
	DefaultPageLimit int
	Metrics          *observability.Metrics
}

// PostService lists, creates, edits, and deletes tours.
type PostService struct {
	postRepo     repository.PostRepository
	editPolicy   string
	defaultLimit int
	metrics      *observability.Metrics
}

// ListInput selects one page of tours.
type ListInput struct {
	Term  string
	Page  int
	Limit int
}

// CreatePostInput carries the fields of a new tour. Destination is a single
// whitespace-separated string.
type CreatePostInput struct {
	AuthorID    uint   `json:"author_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=300"`
	Content     string `json:"content" validate:"required,max=50000"`
	Course      string `json:"course" validate:"required,max=2000"`
	Cost        string `json:"cost" validate:"required,max=200"`
	Destination string `json:"destination" validate:"max=1000"`
}

// EditPostInput replaces the editable fields of an existing tour.
type EditPostInput struct {
	PostID      uint   `json:"id" validate:"required"`
	UserID      uint   `json:"user_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=300"`
	Content     string `json:"content" validate:"required,max=50000"`
	Course      string `json:"course" validate:"required,max=2000"`
	Cost        string `json:"cost" validate:"required,max=200"`
	Destination string `json:"destination" validate:"max=1000"`
}

// DeletePostInput identifies the tour to delete and the acting user.
type DeletePostInput struct {
	PostID uint
	UserID uint
}

// NewPostService creates a PostService over postRepo.
func NewPostService(postRepo repository.PostRepository, settings PostSettings) *PostService {
	policy := settings.EditPolicy
	if policy == "" {
		policy = config.EditPolicyAny
	}
	limit := settings.DefaultPageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return &PostService{
		postRepo:     postRepo,
		editPolicy:   policy,
		defaultLimit: limit,
		metrics:      settings.Metrics,
	}
}

// NormalizePaging clamps page and limit: page < 1 becomes 1, limit < 1
// becomes the default, and limit is capped at 100.
func (s *PostService) NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// List returns one page of tours matching in.Term, newest first.
func (s *PostService) List(ctx context.Context, in ListInput) (*models.PostPage, error) {
	term := strings.TrimSpace(in.Term)
	page, limit := s.NormalizePaging(in.Page, in.Limit)

	span, ctx := observability.StartServiceSpan(ctx, "posts", "List",
		attribute.String("term", term),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)
	defer span.End()

	// A window starting past math.MaxInt cannot hold any row.
	if page-1 > math.MaxInt/limit {
		total, err := s.postRepo.Count(ctx, term)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		s.metrics.RecordSearch(term)
		return models.NewPostPage(nil, term, page, limit, total), nil
	}

	posts, total, err := s.postRepo.Page(ctx, term, limit, (page-1)*limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	s.metrics.RecordSearch(term)

	return models.NewPostPage(posts, term, page, limit, total), nil
}

// Create stores a new tour authored by in.AuthorID.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	span, ctx := observability.StartServiceSpan(ctx, "posts", "Create")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Course = strings.TrimSpace(in.Course)
	in.Cost = strings.TrimSpace(in.Cost)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:       in.AuthorID,
		Title:        in.Title,
		Content:      in.Content,
		Destinations: models.ParseDestinations(in.Destination),
		Course:       in.Course,
		Cost:         in.Cost,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.metrics.RecordPostMutation("create")

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return created, nil
}

// GetForEdit loads a tour for the edit form without touching its counters.
func (s *PostService) GetForEdit(ctx context.Context, postID, userID uint) (*models.Post, error) {
	span, ctx := observability.StartServiceSpan(ctx, "posts", "GetForEdit",
		attribute.Int64("post_id", int64(postID)))
	defer span.End()

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(post, userID, "edit"); err != nil {
		return nil, err
	}
	return post, nil
}

// Edit overwrites title, content, course, cost, and destinations. Counters,
// author, and creation time are preserved.
func (s *PostService) Edit(ctx context.Context, in EditPostInput) (*models.Post, error) {
	span, ctx := observability.StartServiceSpan(ctx, "posts", "Edit",
		attribute.Int64("post_id", int64(in.PostID)))
	defer span.End()

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(post, in.UserID, "edit"); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Course = strings.TrimSpace(in.Course)
	in.Cost = strings.TrimSpace(in.Cost)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Course = in.Course
	post.Cost = in.Cost
	post.Destinations = models.ParseDestinations(in.Destination)

	if err := s.postRepo.UpdateContent(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.metrics.RecordPostMutation("update")

	return s.postRepo.GetByID(ctx, in.PostID)
}

// Delete soft-deletes a tour. A missing tour is treated as already deleted.
func (s *PostService) Delete(ctx context.Context, in DeletePostInput) error {
	span, ctx := observability.StartServiceSpan(ctx, "posts", "Delete",
		attribute.Int64("post_id", int64(in.PostID)))
	defer span.End()

	if s.editPolicy == config.EditPolicyAuthor {
		post, err := s.postRepo.GetByID(ctx, in.PostID)
		if models.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.authorize(post, in.UserID, "delete"); err != nil {
			return err
		}
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		span.SetError(err)
		return err
	}
	s.metrics.RecordPostMutation("delete")
	return nil
}

func (s *PostService) authorize(post *models.Post, userID uint, action string) error {
	if s.editPolicy == config.EditPolicyAuthor && post.UserID != userID {
		return models.NewForbiddenError("You can only " + action + " your own tours")
	}
	return nil
}
