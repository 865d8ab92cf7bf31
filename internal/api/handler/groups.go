package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
	"github.com/chitralai/chitralai/internal/ws"
)

type GroupService interface {
	FaceGroups(ctx context.Context, sess domain.Session, eventID string, strategy service.ClusterStrategy, progress service.ClusterProgressFunc) (*domain.FaceGroups, error)
}

type GroupHandler struct {
	groups   GroupService
	notifier ws.Notifier
	logger   *slog.Logger
}

func NewGroupHandler(groups GroupService, notifier ws.Notifier, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, notifier: notifier, logger: logger}
}

type GroupResponse struct {
	ID             string            `json:"id"`
	Representative domain.FaceRecord `json:"representative"`
	FaceCount      int               `json:"face_count"`
	Images         []string          `json:"images"`
}

type GroupsResponse struct {
	EventID      string          `json:"event_id"`
	Groups       []GroupResponse `json:"groups"`
	TotalFaces   int             `json:"total_faces"`
	ImagesFailed int             `json:"images_failed"`
}

// List GET /v1/events/:id/groups?strategy= - cluster the event's faces
func (h *GroupHandler) List(c *fiber.Ctx) error {
	strategy := service.ClusterStrategy(c.Query("strategy"))
	switch strategy {
	case "", service.StrategyFirstMatch, service.StrategyConnected:
	default:
		return domain.ErrValidationFailed.WithError(errors.New("strategy must be first-match or connected"))
	}

	sess := middleware.GetSession(c)
	var progress service.ClusterProgressFunc
	if sess.Authenticated() {
		progress = ws.GroupsProgress(h.notifier, sess.UserEmail)
	}

	result, err := h.groups.FaceGroups(c.Context(), sess, c.Params("id"), strategy, progress)
	if err != nil {
		return err
	}

	resp := GroupsResponse{
		EventID:      result.EventID,
		Groups:       make([]GroupResponse, 0, len(result.Groups)),
		TotalFaces:   result.TotalFaces,
		ImagesFailed: result.ImagesFailed,
	}
	for i := range result.Groups {
		g := &result.Groups[i]
		images := make([]string, 0, len(g.Faces))
		seen := make(map[string]bool, len(g.Faces))
		for _, f := range g.Faces {
			if !seen[f.ImageURL] {
				seen[f.ImageURL] = true
				images = append(images, f.ImageURL)
			}
		}
		resp.Groups = append(resp.Groups, GroupResponse{
			ID:             g.ID,
			Representative: g.Representative(),
			FaceCount:      len(g.Faces),
			Images:         images,
		})
	}

	h.notifier.Send(sess.UserEmail, ws.EventGroupsCompleted, fiber.Map{
		"event_id": result.EventID,
		"groups":   len(result.Groups),
	})
	return c.JSON(resp)
}
