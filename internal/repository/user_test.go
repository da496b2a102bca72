package repository

import (
	"context"
	"testing"

	"tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "kim", Email: "kim@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "kim", got.Username)

	got, err = repo.GetByUsername(ctx, "kim")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, models.IsNotFound(err))

	users, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\temp`, escapeLike(`c:\temp`))
}
