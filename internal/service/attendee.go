package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/chitralai/chitralai/internal/domain"
)

type CodeResolver interface {
	Resolve(ctx context.Context, raw string) (*domain.Event, error)
}

type SelfieSource interface {
	UploadForEvent(ctx context.Context, sess domain.Session, eventID string, file UploadFile) (string, error)
	Current(ctx context.Context, email string) (string, error)
}

type MatchFinder interface {
	FindMatches(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error)
	Refresh(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error)
	Cached(ctx context.Context, userID, eventID string) (*domain.MatchResult, error)
}

// MatchHistory lists every stored result of a user.
type MatchHistory interface {
	ListByUser(ctx context.Context, userID string) ([]domain.AttendeeMatchRecord, error)
}

// AttendeeService is the "find my photos" flow: resolve the code, pick the
// selfie, sweep.
type AttendeeService struct {
	resolver CodeResolver
	selfies  SelfieSource
	matcher  MatchFinder
	history  MatchHistory
}

func NewAttendeeService(resolver CodeResolver, selfies SelfieSource, matcher MatchFinder, history MatchHistory) *AttendeeService {
	return &AttendeeService{resolver: resolver, selfies: selfies, matcher: matcher, history: history}
}

func (s *AttendeeService) ResolveEvent(ctx context.Context, code string) (*domain.Event, error) {
	return s.resolver.Resolve(ctx, code)
}

// FindPhotos runs a match for the session user. A selfie in the request is
// stored and always swept with, replacing any stored result; otherwise the
// user's current selfie is used and a stored result is returned as is.
func (s *AttendeeService) FindPhotos(ctx context.Context, sess domain.Session, code string, selfie *UploadFile, progress ProgressFunc) (*domain.MatchResult, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	event, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	if selfie != nil {
		selfieURL, err := s.selfies.UploadForEvent(ctx, sess, event.Key(), *selfie)
		if err != nil {
			return nil, err
		}
		return s.matcher.Refresh(ctx, sess.UserEmail, event, selfieURL, progress)
	}

	selfieURL, err := s.selfies.Current(ctx, sess.UserEmail)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindMatches(ctx, sess.UserEmail, event, selfieURL, progress)
}

// SavedPhotos returns a stored result without sweeping.
func (s *AttendeeService) SavedPhotos(ctx context.Context, sess domain.Session, code string) (*domain.MatchResult, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	event, err := s.resolver.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.matcher.Cached(ctx, sess.UserEmail, event.Key())
}

// MyPhotos lists, most recent first, every event the session user has been
// found in. Stored negative results are left out.
func (s *AttendeeService) MyPhotos(ctx context.Context, sess domain.Session) ([]domain.EventPhotos, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	records, err := s.history.ListByUser(ctx, sess.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]domain.EventPhotos, 0, len(records))
	for _, rec := range records {
		if len(rec.MatchedImages) == 0 {
			continue
		}
		out = append(out, domain.EventPhotos{
			EventID:     rec.EventID,
			EventName:   rec.EventName,
			CoverImage:  rec.CoverImage,
			Images:      rec.MatchedImages,
			LastUpdated: rec.LastUpdated,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}
