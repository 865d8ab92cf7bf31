package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
)

type SelfieService interface {
	Upload(ctx context.Context, sess domain.Session, file service.UploadFile) (string, error)
}

type SelfieHandler struct {
	selfies SelfieService
	logger  *slog.Logger
}

func NewSelfieHandler(selfies SelfieService, logger *slog.Logger) *SelfieHandler {
	return &SelfieHandler{selfies: selfies, logger: logger}
}

type SelfieResponse struct {
	SelfieURL string `json:"selfie_url"`
}

// Upload PUT /v1/users/me/selfie - multipart field "selfie"
func (h *SelfieHandler) Upload(c *fiber.Ctx) error {
	file := optionalFormFile(c, "selfie")
	if file == nil {
		return domain.ErrValidationFailed.WithError(errors.New("selfie is required"))
	}

	url, err := h.selfies.Upload(c.Context(), middleware.GetSession(c), *file)
	if err != nil {
		return err
	}
	return c.JSON(SelfieResponse{SelfieURL: url})
}
