package repository

import (
	"context"

	"tours/internal/models"
	"tours/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const postResource = "Tour"

// editableColumns are the only columns an edit may rewrite. Counters,
// author, and creation time are never touched.
var editableColumns = []string{
	"title", "content", "title_search", "content_search",
	"destinations", "course", "cost", "updated_at",
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Page(ctx context.Context, term string, limit, offset int) ([]*models.Post, int64, error)
	Count(ctx context.Context, term string) (int64, error)
	UpdateContent(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementReads(ctx context.Context, id uint) error
	AddLike(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db   *gorm.DB
	log  *observability.RepoLogger
	opts options
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, opts ...Option) PostRepository {
	return &postRepository{
		db:   db,
		log:  observability.NewRepoLogger("posts"),
		opts: buildOptions(opts),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Create", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("create", "posts")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		r.log.LogError(ctx, "create", err, map[string]any{"user_id": post.UserID})
		return translateError(err, postResource, 0)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetByID", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("read", "posts")()

	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, translateError(err, postResource, id)
	}
	return &post, nil
}

// searchScope restricts a query to posts whose title or content contains
// term, case-insensitively. An empty term matches everything.
func searchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		like := "%" + escapeLike(models.FoldSearch(term)) + "%"
		return db.Where(`title_search LIKE ? ESCAPE '\' OR content_search LIKE ? ESCAPE '\'`, like, like)
	}
}

// Page returns one window of posts matching term, newest first, together
// with the total number of matches.
func (r *postRepository) Page(ctx context.Context, term string, limit, offset int) ([]*models.Post, int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Page", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("list", "posts")()

	total, err := r.count(ctx, term)
	if err != nil {
		return nil, 0, err
	}

	posts := make([]*models.Post, 0, limit)
	if total == 0 {
		return posts, 0, nil
	}

	err = r.db.WithContext(ctx).
		Scopes(searchScope(term)).
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, 0, translateError(err, postResource, 0)
	}

	r.log.LogRead(ctx, map[string]any{"term": term, "limit": limit, "offset": offset, "total": total})
	return posts, total, nil
}

// Count returns the number of posts matching term.
func (r *postRepository) Count(ctx context.Context, term string) (int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Count", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("count", "posts")()

	return r.count(ctx, term)
}

func (r *postRepository) count(ctx context.Context, term string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Scopes(searchScope(term)).
		Count(&total).Error; err != nil {
		observability.RecordErrorInContext(ctx, err)
		return 0, translateError(err, postResource, 0)
	}
	return total, nil
}

// UpdateContent rewrites the editable columns of post.ID.
func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UpdateContent", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("update", "posts")()

	post.RefreshSearchFields()
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select(editableColumns).
		Updates(post)
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		r.log.LogError(ctx, "update", res.Error, map[string]any{"post_id": post.ID})
		return translateError(res.Error, postResource, post.ID)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(postResource, post.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"post_id": post.ID})
	return nil
}

// Delete soft-deletes the post. Deleting a missing post is not an error.
// Comments are left in place.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("delete", "posts")()

	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		r.log.LogError(ctx, "delete", res.Error, map[string]any{"post_id": id})
		return translateError(res.Error, postResource, id)
	}
	r.log.LogDelete(ctx, map[string]any{"post_id": id, "rows": res.RowsAffected})
	return nil
}

// IncrementReads adds one to num_reads in a single statement so concurrent
// views are never lost.
func (r *postRepository) IncrementReads(ctx context.Context, id uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "IncrementReads", "posts")
	defer span.End()
	defer r.opts.metrics.TrackQuery("increment_reads", "posts")()

	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("num_reads", gorm.Expr("num_reads + ?", 1))
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		return translateError(res.Error, postResource, id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(postResource, id)
	}
	return nil
}

// AddLike records userID's like on postID and bumps num_likes. It reports
// false when the user had already liked the post.
func (r *postRepository) AddLike(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "AddLike", "likes")
	defer span.End()
	defer r.opts.metrics.TrackQuery("like", "posts")()

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		like := models.Like{UserID: userID, PostID: postID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("num_likes", gorm.Expr("num_likes + ?", 1)).Error
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return false, translateError(err, postResource, postID)
	}
	if created {
		r.log.LogCreate(ctx, map[string]any{"post_id": postID, "user_id": userID, "kind": "like"})
	}
	return created, nil
}
