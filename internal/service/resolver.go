package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chitralai/chitralai/internal/domain"
)

// EventLookup is the read side of the events table used to resolve codes.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ScanByID(ctx context.Context, id string) (*domain.Event, error)
}

// EventResolver turns a user-typed event code into an Event, tolerating
// codes typed without the leading zeros they were stored with and vice versa.
type EventResolver struct {
	events EventLookup
	logger *slog.Logger
}

func NewEventResolver(events EventLookup, logger *slog.Logger) *EventResolver {
	return &EventResolver{
		events: events,
		logger: logger.With("component", "event_resolver"),
	}
}

// CandidateCodes lists the ids tried for raw, in order:
//
//  1. raw as typed
//  2. left-padded with zeros to six digits, when shorter than six
//  3. leading zeros stripped, when exactly six long and starting with '0'
//
// Steps 2 and 3 never both apply.
func CandidateCodes(raw string) []string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return nil
	}

	candidates := []string{code}
	switch {
	case len(code) < domain.EventCodeLength:
		candidates = append(candidates, strings.Repeat("0", domain.EventCodeLength-len(code))+code)
	case len(code) == domain.EventCodeLength && code[0] == '0':
		if stripped := strings.TrimLeft(code, "0"); stripped != "" {
			candidates = append(candidates, stripped)
		}
	}
	return candidates
}

// Resolve returns the first event matching a candidate code, or
// domain.ErrEventNotFound. Store failures that prevent a definite answer are
// returned as errors rather than reported as not found.
func (r *EventResolver) Resolve(ctx context.Context, raw string) (*domain.Event, error) {
	candidates := CandidateCodes(raw)
	if len(candidates) == 0 {
		return nil, domain.ErrEventNotFound
	}

	var lookupErr error
	for _, code := range candidates {
		event, err := r.lookup(ctx, code)
		if err == nil {
			if code != candidates[0] {
				r.logger.DebugContext(ctx, "event code normalized",
					slog.String("raw", raw),
					slog.String("event_id", code),
				)
			}
			return event, nil
		}
		if !errors.Is(err, domain.ErrEventNotFound) {
			lookupErr = err
		}
	}

	if lookupErr != nil {
		return nil, fmt.Errorf("resolve event %q: %w", raw, lookupErr)
	}
	return nil, domain.ErrEventNotFound
}

// lookup tries the point read first and only scans the table when the
// point read itself fails.
func (r *EventResolver) lookup(ctx context.Context, code string) (*domain.Event, error) {
	event, err := r.events.GetByID(ctx, code)
	if err == nil {
		return event, nil
	}
	if errors.Is(err, domain.ErrEventNotFound) {
		return nil, err
	}

	r.logger.WarnContext(ctx, "event point lookup failed, scanning",
		slog.String("event_id", code),
		slog.String("error", err.Error()),
	)

	event, err = r.events.ScanByID(ctx, code)
	if err != nil {
		return nil, err
	}
	return event, nil
}
