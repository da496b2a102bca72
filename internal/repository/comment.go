package repository

import (
	"context"

	"tours/internal/models"
	"tours/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const commentResource = "Comment"

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	CreateForPost(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db   *gorm.DB
	log  *observability.RepoLogger
	opts options
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB, opts ...Option) CommentRepository {
	return &commentRepository{
		db:   db,
		log:  observability.NewRepoLogger("comments"),
		opts: buildOptions(opts),
	}
}

// CreateForPost inserts comment and increments the parent's num_comments in
// one transaction. If the parent post is gone nothing is written.
func (r *commentRepository) CreateForPost(ctx context.Context, comment *models.Comment) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CreateForPost", "comments")
	defer span.End()
	defer r.opts.metrics.TrackQuery("create", "comments")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("num_comments", gorm.Expr("num_comments + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError(postResource, comment.PostID)
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		r.log.LogError(ctx, "create", err, map[string]any{"post_id": comment.PostID})
		return translateError(err, commentResource, 0)
	}

	r.log.LogCreate(ctx, map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translateError(err, commentResource, id)
	}
	return &comment, nil
}

// ListByPost returns the comments on postID in creation order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "ListByPost", "comments")
	defer span.End()
	defer r.opts.metrics.TrackQuery("list", "comments")()

	comments := []*models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translateError(err, commentResource, 0)
	}
	return comments, nil
}
