package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/storage"
)

// SelfiePolicy decides what happens to cached matches when a user replaces
// their selfie.
type SelfiePolicy string

const (
	// SelfieRetain points existing records at the new selfie and keeps
	// their matches.
	SelfieRetain SelfiePolicy = "retain"
	// SelfieInvalidate drops existing records so the next visit to each
	// event sweeps again with the new face.
	SelfieInvalidate SelfiePolicy = "invalidate"
)

// ProfileStore keeps the profile selfie on the user record.
type ProfileStore interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	SetSelfieURL(ctx context.Context, userID, selfieURL string) (string, error)
}

// SelfieObjects stores selfie files and removes replaced ones.
type SelfieObjects interface {
	ObjectWriter
	Delete(ctx context.Context, key string) error
	KeyFromURL(ref string) (string, bool)
}

type SelfieRecordStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.AttendeeMatchRecord, error)
	UpdateSelfieURL(ctx context.Context, userID, selfieURL string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type SelfieService struct {
	objects  SelfieObjects
	profiles ProfileStore
	records  SelfieRecordStore
	policy   SelfiePolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewSelfieService(objects SelfieObjects, profiles ProfileStore, records SelfieRecordStore, policy SelfiePolicy, logger *slog.Logger) *SelfieService {
	if policy == "" {
		policy = SelfieRetain
	}
	return &SelfieService{
		objects:  objects,
		profiles: profiles,
		records:  records,
		policy:   policy,
		logger:   logger.With("component", "selfie_service"),
		now:      time.Now,
	}
}

func (s *SelfieService) store(ctx context.Context, key string, file UploadFile) (string, error) {
	if reason := validateImageUpload(file); reason != "" {
		return "", domain.ErrInvalidImage.WithError(errors.New(reason))
	}
	url, err := putUpload(ctx, s.objects, key, file)
	if err != nil {
		return "", domain.ErrUploadFailed.WithError(err)
	}
	return url, nil
}

// Upload replaces the user's profile selfie and applies the selfie policy
// to their cached matches. The replaced selfie object is removed.
func (s *SelfieService) Upload(ctx context.Context, sess domain.Session, file UploadFile) (string, error) {
	if !sess.Authenticated() {
		return "", domain.ErrUnauthorized
	}

	key := storage.UserSelfieKey(sess.UserEmail, s.now().UnixMilli(), file.Filename)
	url, err := s.store(ctx, key, file)
	if err != nil {
		return "", err
	}

	previous, err := s.profiles.SetSelfieURL(ctx, sess.UserEmail, url)
	if err != nil {
		return "", fmt.Errorf("save profile selfie: %w", err)
	}

	var n int
	switch s.policy {
	case SelfieInvalidate:
		n, err = s.records.DeleteByUser(ctx, sess.UserEmail)
	default:
		n, err = s.records.UpdateSelfieURL(ctx, sess.UserEmail, url)
	}
	if err != nil {
		return "", fmt.Errorf("apply selfie policy %s: %w", s.policy, err)
	}

	if previous != "" && previous != url {
		s.removeSelfie(ctx, previous)
	}

	s.logger.InfoContext(ctx, "selfie updated",
		slog.String("policy", string(s.policy)),
		slog.Int("records", n),
	)
	return url, nil
}

// removeSelfie deletes a replaced selfie. Failures only leave an orphaned
// object behind.
func (s *SelfieService) removeSelfie(ctx context.Context, ref string) {
	key, ok := s.objects.KeyFromURL(ref)
	if !ok {
		return
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to remove replaced selfie",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// UploadForEvent stores a selfie taken for one event's search. Cached
// matches are untouched.
func (s *SelfieService) UploadForEvent(ctx context.Context, sess domain.Session, eventID string, file UploadFile) (string, error) {
	if !sess.Authenticated() {
		return "", domain.ErrUnauthorized
	}
	key := storage.EventSelfieKey(eventID, s.now().UnixMilli(), file.Filename)
	return s.store(ctx, key, file)
}

// Current returns the user's profile selfie. Users who never set one fall
// back to the selfie of their most recently updated match record.
func (s *SelfieService) Current(ctx context.Context, email string) (string, error) {
	user, err := s.profiles.GetByID(ctx, email)
	switch {
	case err == nil && user.SelfieURL != "":
		return user.SelfieURL, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("load profile selfie: %w", err)
	}

	records, err := s.records.ListByUser(ctx, email)
	if err != nil {
		return "", fmt.Errorf("load selfie: %w", err)
	}

	var (
		url    string
		latest time.Time
	)
	for _, r := range records {
		if r.SelfieURL != "" && (url == "" || r.LastUpdated.After(latest)) {
			url, latest = r.SelfieURL, r.LastUpdated
		}
	}
	if url == "" {
		return "", domain.ErrSelfieRequired
	}
	return url, nil
}
