package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tours/internal/database"
	"tours/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// seedPost inserts a post created i minutes after baseTime.
func seedPost(t *testing.T, db *gorm.DB, author *models.User, i int, title, content string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:       author.ID,
		Title:        title,
		Content:      content,
		Destinations: models.StringSlice{"Seoul"},
		Course:       "course",
		Cost:         "100",
		CreatedAt:    baseTime.Add(time.Duration(i) * time.Minute),
	}
	require.NoError(t, db.Omit(clause.Associations).Create(p).Error)
	return p
}

func seedPosts(t *testing.T, db *gorm.DB, author *models.User, n int, format string) []*models.Post {
	t.Helper()
	out := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf(format, i+1)
		out = append(out, seedPost(t, db, author, i, title, "body "+title))
	}
	return out
}

func reload(t *testing.T, db *gorm.DB, id uint) *models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.WithContext(context.Background()).First(&p, id).Error)
	return &p
}
