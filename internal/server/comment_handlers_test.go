package server

import (
	"fmt"
	"net/http"
	"testing"

	"tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment_UpdatesCounter(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.seedTour(t, env.alice, "Chatty", baseTime)
	path := fmt.Sprintf("/api/tours/%d/comments", tour.ID)

	for _, text := range []string{"first", "second"} {
		status, raw := env.do(t, http.MethodPost, path, map[string]string{"content": text}, env.token(t, env.bob))
		require.Equal(t, http.StatusCreated, status, string(raw))
		resp := decode[CommentResponse](t, raw)
		assert.Equal(t, "Successfully commented", resp.Notice.Message)
		assert.Equal(t, text, resp.Comment.Content)
		assert.Equal(t, "bob", resp.Comment.Author.Username)
	}

	status, raw := env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	comments := decode[[]models.Comment](t, raw)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	status, raw = env.do(t, http.MethodGet, fmt.Sprintf("/api/tours/%d", tour.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, decode[models.PostDetail](t, raw).Post.NumComments)
}

func TestCreateComment_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.seedTour(t, env.alice, "Quiet", baseTime)
	path := fmt.Sprintf("/api/tours/%d/comments", tour.ID)

	tests := []struct {
		name   string
		path   string
		body   any
		token  string
		status int
	}{
		{"no token", path, map[string]string{"content": "hi"}, "", http.StatusUnauthorized},
		{"blank content", path, map[string]string{"content": "  "}, env.token(t, env.bob), http.StatusBadRequest},
		{"missing tour", "/api/tours/999/comments", map[string]string{"content": "hi"}, env.token(t, env.bob), http.StatusNotFound},
		{"blank content on missing tour", "/api/tours/999/comments", map[string]string{"content": " "}, env.token(t, env.bob), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.status, status, string(raw))
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, tour.ID).Error)
	assert.Zero(t, reloaded.NumComments)
}

func TestGetComments_MissingTour(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _ := env.do(t, http.MethodGet, "/api/tours/77/comments", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}
