package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
	"github.com/chitralai/chitralai/internal/ws"
)

// AttendeeService is the "find my photos" flow.
type AttendeeService interface {
	FindPhotos(ctx context.Context, sess domain.Session, code string, selfie *service.UploadFile, progress service.ProgressFunc) (*domain.MatchResult, error)
	SavedPhotos(ctx context.Context, sess domain.Session, code string) (*domain.MatchResult, error)
	MyPhotos(ctx context.Context, sess domain.Session) ([]domain.EventPhotos, error)
}

type MatchHandler struct {
	attendees AttendeeService
	notifier  ws.Notifier
	logger    *slog.Logger
}

func NewMatchHandler(attendees AttendeeService, notifier ws.Notifier, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{attendees: attendees, notifier: notifier, logger: logger}
}

type MyPhotosResponse struct {
	Events []domain.EventPhotos `json:"events"`
}

type MatchCompleted struct {
	EventID string `json:"event_id"`
	Matches int    `json:"matches"`
	Failed  int    `json:"failed"`
}

// Find POST /v1/events/:id/matches - sweep the event for the session user.
// An optional multipart "selfie" replaces the stored one for this search.
// Batch progress is pushed over the websocket.
func (h *MatchHandler) Find(c *fiber.Ctx) error {
	sess := middleware.GetSession(c)

	var progress service.ProgressFunc
	if sess.Authenticated() {
		progress = ws.MatchProgress(h.notifier, sess.UserEmail)
	}

	result, err := h.attendees.FindPhotos(c.Context(), sess, c.Params("id"), optionalFormFile(c, "selfie"), progress)
	if err != nil {
		return err
	}

	h.notifier.Send(sess.UserEmail, ws.EventMatchCompleted, MatchCompleted{
		EventID: result.EventID,
		Matches: len(result.Matches),
		Failed:  result.Failed,
	})
	return c.JSON(result)
}

// Saved GET /v1/events/:id/matches - the stored result, without sweeping
func (h *MatchHandler) Saved(c *fiber.Ctx) error {
	result, err := h.attendees.SavedPhotos(c.Context(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Mine GET /v1/users/me/matches - every event the session user appears in
func (h *MatchHandler) Mine(c *fiber.Ctx) error {
	events, err := h.attendees.MyPhotos(c.Context(), middleware.GetSession(c))
	if err != nil {
		return err
	}
	return c.JSON(MyPhotosResponse{Events: events})
}
