package server

import (
	"errors"
	"log/slog"

	"tours/internal/middleware"
	"tours/internal/models"
	"tours/internal/notifications"
	"tours/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters. Clamping happens in
// the post service.
type Pagination struct {
	Page  int
	Limit int
	Term  string
}

func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 0),
		Term:  c.Query("term"),
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUser returns the authenticated user set by the access gate. Routes
// behind Required always have one.
func currentUser(c *fiber.Ctx) uint {
	userID, _ := middleware.UserID(c)
	return userID
}

// statusFor maps an AppError code onto an HTTP status.
func statusFor(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeStoreUnavailable:
		return fiber.StatusServiceUnavailable
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func respondWithAppError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		observability.GlobalLogger.ErrorContext(c.UserContext(), "Request failed",
			slog.Int("status", status), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// notice is the outcome message shown to the user after an action.
type notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	noticeSuccess = "success"
	noticeWarning = "warning"
)

var (
	noticePosted    = notice{Level: noticeSuccess, Message: "Successfully posted"}
	noticeUpdated   = notice{Level: noticeSuccess, Message: "Successfully updated"}
	noticeDeleted   = notice{Level: noticeSuccess, Message: "Successfully deleted"}
	noticeCommented = notice{Level: noticeSuccess, Message: "Successfully commented"}
	noticeLiked     = notice{Level: noticeSuccess, Message: "Successfully liked"}
	noticeNoTour    = notice{Level: noticeWarning, Message: "Not exist tour"}
)

// tourErrorResponse is an error body that also carries a notice.
type tourErrorResponse struct {
	models.ErrorResponse
	Notice notice `json:"notice"`
}

// respondWithTourError is respondWithAppError for tour routes: a missing
// tour additionally carries the "Not exist tour" notice.
func respondWithTourError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
		return c.Status(fiber.StatusNotFound).JSON(tourErrorResponse{
			ErrorResponse: models.ErrorResponse{Error: appErr.Message, Code: appErr.Code},
			Notice:        noticeNoTour,
		})
	}
	return respondWithAppError(c, err)
}

// publishEvent sends ev to subscribers. Failures are logged and never fail
// the request.
func (s *Server) publishEvent(c *fiber.Ctx, ev notifications.Event) {
	if err := s.notifier.Publish(c.UserContext(), ev); err != nil {
		s.metrics.RecordRedisError("publish")
		observability.GlobalLogger.WarnContext(c.UserContext(), "Failed to publish event",
			slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}
