package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/repository"
	"github.com/chitralai/chitralai/internal/storage"
)

// maxCodeAttempts bounds the search for an unused event code.
const maxCodeAttempts = 10

type EventStore interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, email string) ([]domain.Event, error)
	IncrementPhotoCount(ctx context.Context, id string, delta int) (int, error)
}

type UserStore interface {
	AddCreatedEvent(ctx context.Context, userID, eventID string) error
}

// GroupBuilder is implemented by ClusterEngine.
type GroupBuilder interface {
	BuildGroups(ctx context.Context, event *domain.Event, strategy ClusterStrategy, progress ClusterProgressFunc) (*domain.FaceGroups, error)
	DropCollection(ctx context.Context, eventID string) error
}

// EventService covers the organizer side: creating events, uploading
// photos, access control and face groups.
type EventService struct {
	events            EventStore
	users             UserStore
	objects           ObjectWriter
	groups            GroupBuilder
	uploadConcurrency int
	logger            *slog.Logger
	now               func() time.Time
	randomCode        func() int
}

func NewEventService(
	events EventStore,
	users UserStore,
	objects ObjectWriter,
	groups GroupBuilder,
	uploadConcurrency int,
	logger *slog.Logger,
) *EventService {
	if uploadConcurrency < 1 {
		uploadConcurrency = 10
	}
	return &EventService{
		events:            events,
		users:             users,
		objects:           objects,
		groups:            groups,
		uploadConcurrency: uploadConcurrency,
		logger:            logger.With("component", "event_service"),
		now:               time.Now,
		randomCode: func() int {
			return domain.EventCodeMin + rand.IntN(domain.EventCodeMax-domain.EventCodeMin+1)
		},
	}
}

// Create stores a new event owned by the session user under a fresh
// 6-digit code. A cover, when given, is stored at the event's cover key
// before the record is written.
func (s *EventService) Create(ctx context.Context, sess domain.Session, input domain.CreateEventInput, cover *UploadFile) (*domain.Event, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if cover != nil {
		if reason := validateImageUpload(*cover); reason != "" {
			return nil, domain.ErrValidationFailed.WithError(errors.New("cover: " + reason))
		}
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	var coverURL string
	if cover != nil {
		coverURL, err = putUpload(ctx, s.objects, storage.EventCoverKey(code), *cover)
		if err != nil {
			return nil, domain.ErrUploadFailed.WithError(err)
		}
	}

	now := s.now().UTC()
	event := &domain.Event{
		EventID:          code,
		ID:               code,
		Name:             name,
		Date:             input.Date,
		Description:      input.Description,
		CoverImage:       coverURL,
		OwnerEmail:       sess.UserEmail,
		OrganizerID:      sess.UserEmail,
		UserID:           sess.UserEmail,
		OrganizationCode: input.OrganizationCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, email := range input.EmailAccess {
		if email = strings.TrimSpace(email); email != "" {
			event.GrantAccess(email)
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.ErrEventCodeConflict.WithError(err)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	if err := s.users.AddCreatedEvent(ctx, sess.UserEmail, code); err != nil {
		s.logger.WarnContext(ctx, "failed to record created event on user",
			slog.String("event_id", code),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "event created", slog.String("event_id", code))
	return event, nil
}

// generateCode draws random codes until one is unused. When every attempt
// collides the last candidate is returned anyway and the conditional
// create decides.
func (s *EventService) generateCode(ctx context.Context) (string, error) {
	var code string
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code = strconv.Itoa(s.randomCode())
		exists, err := s.events.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check event code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	s.logger.WarnContext(ctx, "no unused event code found, using last candidate",
		slog.String("event_id", code),
		slog.Int("attempts", maxCodeAttempts),
	)
	return code, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *EventService) ListOwned(ctx context.Context, sess domain.Session) ([]domain.Event, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	return s.events.ListByOwner(ctx, sess.UserEmail)
}

// manageable loads the event and checks the session may manage it.
func (s *EventService) manageable(ctx context.Context, sess domain.Session, id string, ownerOnly bool) (*domain.Event, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := event.CanManage(sess.UserEmail)
	if ownerOnly {
		allowed = event.IsOwner(sess.UserEmail)
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// Delete removes the event record and its face collection. Photos stay in
// the bucket.
func (s *EventService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if _, err := s.manageable(ctx, sess, id, true); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.groups.DropCollection(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to delete face collection",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
	}
	s.logger.InfoContext(ctx, "event deleted", slog.String("event_id", id))
	return nil
}

// GrantAccess lets email upload to and view groups of the event.
func (s *EventService) GrantAccess(ctx context.Context, sess domain.Session, id, email string) (*domain.Event, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, domain.ErrValidationFailed.WithError(errors.New("a valid email is required"))
	}
	event, err := s.manageable(ctx, sess, id, true)
	if err != nil {
		return nil, err
	}
	if !event.GrantAccess(email) {
		return event, nil
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("grant access: %w", err)
	}
	return event, nil
}

// UploadImages stores files as event photos and bumps photoCount by the
// number stored. Only a request where nothing was stored is an error.
func (s *EventService) UploadImages(ctx context.Context, sess domain.Session, eventID string, files []UploadFile) (*domain.UploadReport, error) {
	if _, err := s.manageable(ctx, sess, eventID, false); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.ErrValidationFailed.WithError(errors.New("no files provided"))
	}

	ts := s.now().UnixMilli()
	uploaded := make([]*domain.UploadedFile, len(files))
	reasons := make([]string, len(files))

	var mu sync.Mutex
	var firstErr error

	g := new(errgroup.Group)
	g.SetLimit(s.uploadConcurrency)
	for i, f := range files {
		if reason := validateImageUpload(f); reason != "" {
			reasons[i] = reason
			continue
		}
		g.Go(func() error {
			key := storage.EventImageKey(eventID, ts, i, f.Filename)
			url, err := putUpload(ctx, s.objects, key, f)
			if err != nil {
				s.logger.WarnContext(ctx, "upload failed",
					slog.String("event_id", eventID),
					slog.String("filename", f.Filename),
					slog.String("error", err.Error()),
				)
				reasons[i] = "storage error"
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			uploaded[i] = &domain.UploadedFile{Filename: f.Filename, Key: key, URL: url}
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.UploadReport{
		EventID:  eventID,
		Uploaded: []domain.UploadedFile{},
		Failed:   []domain.UploadFailure{},
	}
	for i, f := range files {
		if uploaded[i] != nil {
			report.Uploaded = append(report.Uploaded, *uploaded[i])
			continue
		}
		report.Failed = append(report.Failed, domain.UploadFailure{Filename: f.Filename, Reason: reasons[i]})
	}

	if len(report.Uploaded) == 0 {
		if firstErr == nil {
			firstErr = errors.New(report.Failed[0].Reason)
		}
		return report, domain.ErrUploadFailed.WithError(firstErr)
	}

	count, err := s.events.IncrementPhotoCount(ctx, eventID, len(report.Uploaded))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to update photo count",
			slog.String("event_id", eventID),
			slog.Int("delta", len(report.Uploaded)),
			slog.String("error", err.Error()),
		)
	}
	report.PhotoCount = count

	s.logger.InfoContext(ctx, "images uploaded",
		slog.String("event_id", eventID),
		slog.Int("uploaded", len(report.Uploaded)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// FaceGroups clusters the faces of an event the session may manage.
func (s *EventService) FaceGroups(ctx context.Context, sess domain.Session, eventID string, strategy ClusterStrategy, progress ClusterProgressFunc) (*domain.FaceGroups, error) {
	event, err := s.manageable(ctx, sess, eventID, false)
	if err != nil {
		return nil, err
	}
	return s.groups.BuildGroups(ctx, event, strategy, progress)
}
