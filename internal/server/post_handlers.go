package server

import (
	"tours/internal/models"
	"tours/internal/notifications"
	"tours/internal/service"

	"github.com/gofiber/fiber/v2"
)

// tourRequest is the create/edit form. Destination is one
// whitespace-separated string.
type tourRequest struct {
	Title       string `json:"title" form:"title"`
	Content     string `json:"content" form:"content"`
	Course      string `json:"course" form:"course"`
	Cost        string `json:"cost" form:"cost"`
	Destination string `json:"destination" form:"destination"`
}

// TourResponse wraps a tour with the outcome notice.
type TourResponse struct {
	Notice *notice      `json:"notice,omitempty"`
	Tour   *models.Post `json:"tour"`
}

// ListTours godoc
// @Summary List tours
// @Description Newest first, optionally filtered by a case-insensitive term on title or content
// @Tags tours
// @Produce json
// @Param term query string false "Search term"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.PostPage
// @Failure 503 {object} models.ErrorResponse
// @Router /tours [get]
func (s *Server) ListTours(c *fiber.Ctx) error {
	p := parsePagination(c)

	page, err := s.postService.List(c.UserContext(), service.ListInput{
		Term:  p.Term,
		Page:  p.Page,
		Limit: p.Limit,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetTour godoc
// @Summary Show a tour
// @Description Counts one view and returns the tour with its comments
// @Tags tours
// @Produce json
// @Param id path int true "Tour ID"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id} [get]
func (s *Server) GetTour(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.engagementService.RecordView(c.UserContext(), id)
	if err != nil {
		return respondWithTourError(c, err)
	}

	s.publishEvent(c, notifications.Event{
		Type:   notifications.EventPostViewed,
		PostID: id,
		UserID: currentUser(c),
	})
	return c.JSON(detail)
}

// GetTourForEdit godoc
// @Summary Load a tour for editing
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} TourResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id}/edit [get]
func (s *Server) GetTourForEdit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetForEdit(c.UserContext(), id, currentUser(c))
	if err != nil {
		return respondWithTourError(c, err)
	}
	return c.JSON(TourResponse{Tour: post})
}

// CreateTour godoc
// @Summary Create a tour
// @Tags tours
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Success 201 {object} TourResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /tours [post]
func (s *Server) CreateTour(c *fiber.Ctx) error {
	var req tourRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUser(c)
	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID:    userID,
		Title:       req.Title,
		Content:     req.Content,
		Course:      req.Course,
		Cost:        req.Cost,
		Destination: req.Destination,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}

	s.publishEvent(c, notifications.Event{
		Type:   notifications.EventPostCreated,
		PostID: post.ID,
		UserID: userID,
	})
	n := noticePosted
	return c.Status(fiber.StatusCreated).JSON(TourResponse{Notice: &n, Tour: post})
}

// UpdateTour godoc
// @Summary Edit a tour
// @Description Overwrites title, content, course, cost and destinations. Counters are preserved.
// @Tags tours
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} TourResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id} [put]
func (s *Server) UpdateTour(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req tourRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUser(c)
	post, err := s.postService.Edit(c.UserContext(), service.EditPostInput{
		PostID:      id,
		UserID:      userID,
		Title:       req.Title,
		Content:     req.Content,
		Course:      req.Course,
		Cost:        req.Cost,
		Destination: req.Destination,
	})
	if err != nil {
		return respondWithTourError(c, err)
	}

	s.publishEvent(c, notifications.Event{
		Type:   notifications.EventPostUpdated,
		PostID: id,
		UserID: userID,
	})
	n := noticeUpdated
	return c.JSON(TourResponse{Notice: &n, Tour: post})
}

// DeleteTour godoc
// @Summary Delete a tour
// @Description Deleting a missing tour succeeds. Comments are kept.
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} TourResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /tours/{id} [delete]
func (s *Server) DeleteTour(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUser(c)
	if err := s.postService.Delete(c.UserContext(), service.DeletePostInput{PostID: id, UserID: userID}); err != nil {
		return respondWithAppError(c, err)
	}

	s.publishEvent(c, notifications.Event{
		Type:   notifications.EventPostDeleted,
		PostID: id,
		UserID: userID,
	})
	n := noticeDeleted
	return c.JSON(TourResponse{Notice: &n})
}

// LikeTour godoc
// @Summary Like a tour
// @Description Liking the same tour twice counts once
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tour ID"
// @Success 200 {object} TourResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tours/{id}/like [post]
func (s *Server) LikeTour(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := currentUser(c)
	post, created, err := s.engagementService.Like(c.UserContext(), id, userID)
	if err != nil {
		return respondWithTourError(c, err)
	}

	if created {
		s.publishEvent(c, notifications.Event{
			Type:   notifications.EventPostLiked,
			PostID: id,
			UserID: userID,
		})
	}
	n := noticeLiked
	return c.JSON(TourResponse{Notice: &n, Tour: post})
}
