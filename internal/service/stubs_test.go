package service

import (
	"context"
	"errors"
	"testing"

	"tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	pageFn           func(context.Context, string, int, int) ([]*models.Post, int64, error)
	countFn          func(context.Context, string) (int64, error)
	updateContentFn  func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	incrementReadsFn func(context.Context, uint) error
	addLikeFn        func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Page(ctx context.Context, term string, limit, offset int) ([]*models.Post, int64, error) {
	return s.pageFn(ctx, term, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, term string) (int64, error) {
	return s.countFn(ctx, term)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, post *models.Post) error {
	return s.updateContentFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IncrementReads(ctx context.Context, id uint) error {
	return s.incrementReadsFn(ctx, id)
}
func (s *postRepoStub) AddLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.addLikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		pageFn: func(_ context.Context, _ string, _, _ int) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		countFn:          func(_ context.Context, _ string) (int64, error) { return 0, nil },
		updateContentFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		incrementReadsFn: func(_ context.Context, _ uint) error { return nil },
		addLikeFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createForPostFn func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	listByPostFn    func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) CreateForPost(ctx context.Context, c *models.Comment) error {
	return s.createForPostFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createForPostFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return []*models.Comment{}, nil },
	}
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
