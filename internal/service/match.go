package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chitralai/chitralai/internal/audit"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/provider"
	"github.com/chitralai/chitralai/internal/storage"
)

// ImageStore enumerates event images and maps keys to URLs.
type ImageStore interface {
	ListImageKeys(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
	KeyFromURL(ref string) (string, bool)
}

// MatchStore is the attendee match cache.
type MatchStore interface {
	Get(ctx context.Context, userID, eventID string) (*domain.AttendeeMatchRecord, error)
	Put(ctx context.Context, record *domain.AttendeeMatchRecord) error
}

// ProgressFunc receives a report after every completed batch. It is called
// from the sweeping goroutine and must not block for long.
type ProgressFunc func(domain.SweepProgress)

type MatchConfig struct {
	BatchSize      int
	CompareTimeout time.Duration
	// NoMatchTTL bounds how long a zero-result sweep is served from cache.
	NoMatchTTL time.Duration
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		BatchSize:      70,
		CompareTimeout: 30 * time.Second,
		NoMatchTTL:     time.Hour,
	}
}

// MatchEngine finds the event photos that contain the user's face.
type MatchEngine struct {
	images      ImageStore
	matches     MatchStore
	comparer    provider.FaceComparer
	cfg         MatchConfig
	auditLogger audit.Logger
	logger      *slog.Logger
	now         func() time.Time
}

func NewMatchEngine(
	images ImageStore,
	matches MatchStore,
	comparer provider.FaceComparer,
	cfg MatchConfig,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *MatchEngine {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultMatchConfig().BatchSize
	}
	if cfg.CompareTimeout <= 0 {
		cfg.CompareTimeout = DefaultMatchConfig().CompareTimeout
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &MatchEngine{
		images:      images,
		matches:     matches,
		comparer:    comparer,
		cfg:         cfg,
		auditLogger: auditLogger,
		logger:      logger.With("component", "match_engine"),
		now:         time.Now,
	}
}

// Cached returns the stored result for (userID, eventID) without sweeping.
func (e *MatchEngine) Cached(ctx context.Context, userID, eventID string) (*domain.MatchResult, error) {
	rec, err := e.matches.Get(ctx, userID, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrMatchNotCached
	}
	if err != nil {
		return nil, err
	}
	if len(rec.MatchedImages) == 0 {
		if rec.Expired(e.now()) {
			return nil, domain.ErrMatchNotCached
		}
		return nil, domain.ErrNoMatchesFound
	}
	return &domain.MatchResult{EventID: eventID, Matches: rec.Matches(), FromCache: true}, nil
}

// FindMatches returns the event images containing the face in selfieURL,
// strongest first. A stored result for (userID, event) is returned as is.
func (e *MatchEngine) FindMatches(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error) {
	return e.find(ctx, userID, event, selfieURL, true, progress)
}

// Refresh is FindMatches without the stored result: it always sweeps and
// a successful sweep overwrites the record. Used when the caller brings a
// new selfie.
func (e *MatchEngine) Refresh(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error) {
	return e.find(ctx, userID, event, selfieURL, false, progress)
}

func (e *MatchEngine) find(ctx context.Context, userID string, event *domain.Event, selfieURL string, useCache bool, progress ProgressFunc) (*domain.MatchResult, error) {
	eventID := event.Key()

	// 1. Cache
	if useCache {
		cached, err := e.Cached(ctx, userID, eventID)
		switch {
		case err == nil:
			return cached, nil
		case errors.Is(err, domain.ErrNoMatchesFound):
			return nil, err
		case !errors.Is(err, domain.ErrMatchNotCached):
			e.logger.WarnContext(ctx, "match cache read failed, sweeping",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()),
			)
		}
	}

	selfieKey, ok := e.images.KeyFromURL(selfieURL)
	if !ok {
		return nil, domain.ErrSelfieRequired
	}

	// 2. Enumerate
	keys, err := e.images.ListImageKeys(ctx, storage.EventImagesPrefix(eventID))
	if err != nil {
		return nil, fmt.Errorf("list images for event %s: %w", eventID, err)
	}
	if len(keys) == 0 {
		return nil, domain.ErrNoImagesInEvent
	}

	// 3. Sweep
	sweepID := uuid.NewString()
	logger := e.logger.With(
		slog.String("sweep_id", sweepID),
		slog.String("event_id", eventID),
	)
	start := e.now()

	scores, failed, err := e.sweep(ctx, logger, eventID, selfieKey, keys, progress)
	if err != nil {
		return nil, err
	}
	// A caller that went away gets nothing persisted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Rank
	matches := make([]domain.Match, 0)
	for i, key := range keys {
		if scores[i] > 0 {
			matches = append(matches, domain.Match{
				ImageKey:   key,
				ImageURL:   e.images.PublicURL(key),
				Similarity: scores[i],
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	logger.InfoContext(ctx, "sweep completed",
		slog.Int("images", len(keys)),
		slog.Int("matched", len(matches)),
		slog.Int("failed", failed),
		slog.Duration("duration", e.now().Sub(start)),
	)
	_ = e.auditLogger.Log(ctx, audit.Event{
		EventType: audit.EventSweepCompleted,
		EventID:   eventID,
		UserEmail: userID,
		Provider:  "match_engine",
		Success:   failed < len(keys),
		Metadata: map[string]string{
			"sweep_id": sweepID,
			"images":   strconv.Itoa(len(keys)),
			"matched":  strconv.Itoa(len(matches)),
			"failed":   strconv.Itoa(failed),
		},
	})

	if failed == len(keys) {
		return nil, domain.ErrMatchingUnavailable
	}

	// 5. Persist
	if len(matches) == 0 {
		// Only a clean sweep is worth remembering as negative.
		if failed == 0 {
			e.persist(ctx, logger, userID, event, selfieURL, nil)
		}
		return nil, domain.ErrNoMatchesFound
	}
	e.persist(ctx, logger, userID, event, selfieURL, matches)

	return &domain.MatchResult{
		EventID: eventID,
		Matches: matches,
		Scanned: len(keys),
		Failed:  failed,
	}, nil
}

// sweep compares the selfie with every key in sequential batches. Within a
// batch comparisons run concurrently and every one is allowed to settle;
// a failed comparison only loses that image. scores[i] holds the best
// accepted similarity for keys[i], or zero.
func (e *MatchEngine) sweep(
	ctx context.Context,
	logger *slog.Logger,
	eventID, selfieKey string,
	keys []string,
	progress ProgressFunc,
) ([]float64, int, error) {
	scores := make([]float64, len(keys))
	errs := make([]error, len(keys))
	batches := (len(keys) + e.cfg.BatchSize - 1) / e.cfg.BatchSize
	failed := 0

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		lo := b * e.cfg.BatchSize
		hi := min(lo+e.cfg.BatchSize, len(keys))

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				scores[i], errs[i] = e.compare(ctx, selfieKey, keys[i])
				return nil
			})
		}
		_ = g.Wait()

		report := domain.SweepProgress{
			EventID:   eventID,
			Batch:     b + 1,
			Batches:   batches,
			Processed: hi,
			Total:     len(keys),
		}
		for i := lo; i < hi; i++ {
			if errs[i] != nil {
				failed++
				logger.WarnContext(ctx, "comparison failed",
					slog.String("image_key", keys[i]),
					slog.String("error", errs[i].Error()),
				)
				continue
			}
			if scores[i] > 0 {
				report.NewMatches = append(report.NewMatches, domain.Match{
					ImageKey:   keys[i],
					ImageURL:   e.images.PublicURL(keys[i]),
					Similarity: scores[i],
				})
			}
		}
		report.Failed = failed

		logger.DebugContext(ctx, "batch completed",
			slog.Int("batch", b+1),
			slog.Int("batches", batches),
			slog.Int("new_matches", len(report.NewMatches)),
		)
		if progress != nil {
			progress(report)
		}
	}

	return scores, failed, nil
}

// compare returns the best similarity at or above AcceptanceThreshold, or
// zero when the image has no acceptable face.
func (e *MatchEngine) compare(ctx context.Context, selfieKey, imageKey string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CompareTimeout)
	defer cancel()

	found, err := e.comparer.CompareFaces(ctx, selfieKey, imageKey, domain.GatewayThreshold)
	if err != nil {
		return 0, err
	}

	best := 0.0
	for _, m := range found {
		if m.Similarity >= domain.AcceptanceThreshold && m.Similarity > best {
			best = m.Similarity
		}
	}
	return best, nil
}

func (e *MatchEngine) persist(
	ctx context.Context,
	logger *slog.Logger,
	userID string,
	event *domain.Event,
	selfieURL string,
	matches []domain.Match,
) {
	now := e.now().UTC()
	rec := &domain.AttendeeMatchRecord{
		UserID:        userID,
		EventID:       event.Key(),
		SelfieURL:     selfieURL,
		MatchedImages: make([]string, 0, len(matches)),
		MatchScores:   make([]float64, 0, len(matches)),
		EventName:     event.Name,
		CoverImage:    event.CoverImage,
		UploadedAt:    now,
		LastUpdated:   now,
	}
	for _, m := range matches {
		rec.MatchedImages = append(rec.MatchedImages, m.ImageURL)
		rec.MatchScores = append(rec.MatchScores, m.Similarity)
	}
	if len(matches) == 0 {
		rec.ExpiresAt = now.Add(e.cfg.NoMatchTTL).Unix()
	}

	if err := e.matches.Put(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "failed to store matches",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
