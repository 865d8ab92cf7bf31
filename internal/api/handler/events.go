package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
)

// EventService is the organizer side of events.
type EventService interface {
	Create(ctx context.Context, sess domain.Session, input domain.CreateEventInput, cover *service.UploadFile) (*domain.Event, error)
	Get(ctx context.Context, id string) (*domain.Event, error)
	ListOwned(ctx context.Context, sess domain.Session) ([]domain.Event, error)
	Delete(ctx context.Context, sess domain.Session, id string) error
	GrantAccess(ctx context.Context, sess domain.Session, id, email string) (*domain.Event, error)
	UploadImages(ctx context.Context, sess domain.Session, eventID string, files []service.UploadFile) (*domain.UploadReport, error)
}

// EventResolver maps a typed code to an event.
type EventResolver interface {
	ResolveEvent(ctx context.Context, code string) (*domain.Event, error)
}

type EventHandler struct {
	events   EventService
	resolver EventResolver
	logger   *slog.Logger
}

func NewEventHandler(events EventService, resolver EventResolver, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, resolver: resolver, logger: logger}
}

// EventSummary is what attendees see of an event.
type EventSummary struct {
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	Date       string `json:"date,omitempty"`
	CoverImage string `json:"cover_image,omitempty"`
	PhotoCount int    `json:"photo_count"`
}

func summarize(e *domain.Event) EventSummary {
	return EventSummary{
		EventID:    e.Key(),
		Name:       e.Name,
		Date:       e.Date,
		CoverImage: e.CoverImage,
		PhotoCount: e.PhotoCount,
	}
}

type EventListResponse struct {
	Events []domain.Event `json:"events"`
}

type GrantAccessRequest struct {
	Email string `json:"email"`
}

// Resolve GET /v1/events/resolve?code= - look up an event by typed code
func (h *EventHandler) Resolve(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return domain.ErrValidationFailed.WithError(errors.New("code is required"))
	}

	event, err := h.resolver.ResolveEvent(c.Context(), code)
	if err != nil {
		return err
	}
	return c.JSON(summarize(event))
}

// Create POST /v1/events - JSON, or multipart with an optional "cover" file
func (h *EventHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateEventInput
	if err := c.BodyParser(&input); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}
	var cover *service.UploadFile
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		cover = optionalFormFile(c, "cover")
	}
	if input.Date != "" {
		if _, err := time.Parse(time.DateOnly, input.Date); err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("date must be YYYY-MM-DD"))
		}
	}

	event, err := h.events.Create(c.Context(), middleware.GetSession(c), input, cover)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// List GET /v1/events - events created by the session user
func (h *EventHandler) List(c *fiber.Ctx) error {
	events, err := h.events.ListOwned(c.Context(), middleware.GetSession(c))
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.Event{}
	}
	return c.JSON(EventListResponse{Events: events})
}

// Get GET /v1/events/:id - the full record for those who manage it, the
// attendee summary for everyone else
func (h *EventHandler) Get(c *fiber.Ctx) error {
	event, err := h.events.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if event.CanManage(middleware.GetSession(c).UserEmail) {
		return c.JSON(event)
	}
	return c.JSON(summarize(event))
}

// Delete DELETE /v1/events/:id
func (h *EventHandler) Delete(c *fiber.Ctx) error {
	if err := h.events.Delete(c.Context(), middleware.GetSession(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GrantAccess POST /v1/events/:id/access
func (h *EventHandler) GrantAccess(c *fiber.Ctx) error {
	var req GrantAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	event, err := h.events.GrantAccess(c.Context(), middleware.GetSession(c), c.Params("id"), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(event)
}

// UploadImages POST /v1/events/:id/images - multipart field "images"
func (h *EventHandler) UploadImages(c *fiber.Ctx) error {
	files, err := formFiles(c, "images")
	if err != nil {
		return err
	}

	report, err := h.events.UploadImages(c.Context(), middleware.GetSession(c), c.Params("id"), files)
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if len(report.Failed) > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(report)
}
