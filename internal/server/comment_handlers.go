package server

import (
	"tours/internal/models"
	"tours/internal/notifications"
	"tours/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentResponse wraps a new comment with the outcome notice.
type CommentResponse struct {
	Notice  notice          `json:"notice"`
	Comment *models.Comment `json:"comment"`
}

// CreateComment godoc
// @Summary Comment on a tour
// @Tags comments
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 201 {object} CommentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	userID := currentUser(c)
	created, err := s.engagementService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:   postID,
		AuthorID: userID,
		Content:  req.Content,
	})
	if err != nil {
		return respondWithTourError(c, err)
	}

	s.publishEvent(c, notifications.Event{
		Type:      notifications.EventCommentCreated,
		PostID:    postID,
		UserID:    userID,
		CommentID: created.ID,
	})
	return c.Status(fiber.StatusCreated).JSON(CommentResponse{Notice: noticeCommented, Comment: created})
}

// GetComments godoc
// @Summary List comments on a tour
// @Description Oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Tour ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.engagementService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondWithTourError(c, err)
	}
	return c.JSON(comments)
}
