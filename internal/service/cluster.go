package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chitralai/chitralai/internal/audit"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/provider"
	"github.com/chitralai/chitralai/internal/storage"
)

// ClusterStrategy decides how search results are turned into groups.
type ClusterStrategy string

const (
	// StrategyFirstMatch assigns each face, as its search returns, to the
	// first matched face that already has a group. Searches complete in
	// arbitrary order, so two runs over the same photos may group
	// differently and one person can end up split across groups.
	StrategyFirstMatch ClusterStrategy = "first-match"
	// StrategyConnected waits for every search and groups the connected
	// components of the match graph. The result depends only on the
	// search results.
	StrategyConnected ClusterStrategy = "connected"
)

type ClusterConfig struct {
	Strategy    ClusterStrategy
	Concurrency int
}

func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Strategy:    StrategyFirstMatch,
		Concurrency: 32,
	}
}

// ClusterProgressFunc receives a report after each index or search call.
type ClusterProgressFunc func(domain.ClusterProgress)

// ClusterEngine groups the faces found in an event's photos by person.
type ClusterEngine struct {
	images      ImageStore
	indexer     provider.FaceIndexer
	cfg         ClusterConfig
	auditLogger audit.Logger
	logger      *slog.Logger

	// locks holds one *sync.Mutex per event. A build owns the event's
	// collection from reset to the last search.
	locks sync.Map
}

func NewClusterEngine(
	images ImageStore,
	indexer provider.FaceIndexer,
	cfg ClusterConfig,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *ClusterEngine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultClusterConfig().Concurrency
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyFirstMatch
	}
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &ClusterEngine{
		images:      images,
		indexer:     indexer,
		cfg:         cfg,
		auditLogger: auditLogger,
		logger:      logger.With("component", "cluster_engine"),
	}
}

// BuildGroups indexes every face in the event and groups them. Failures on
// single images or faces are logged and never abort the run; every face
// that was indexed appears in exactly one group.
//
// The collection is emptied before indexing, so repeated runs over the same
// photos see the same faces. Group ids are assigned per run and may differ
// between runs.
func (e *ClusterEngine) BuildGroups(ctx context.Context, event *domain.Event, strategy ClusterStrategy, progress ClusterProgressFunc) (*domain.FaceGroups, error) {
	eventID := event.Key()
	if strategy == "" {
		strategy = e.cfg.Strategy
	}
	logger := e.logger.With(slog.String("event_id", eventID), slog.String("strategy", string(strategy)))

	unlock := e.lock(eventID)
	defer unlock()

	keys, err := e.images.ListImageKeys(ctx, storage.EventImagesPrefix(eventID))
	if err != nil {
		return nil, fmt.Errorf("list images for event %s: %w", eventID, err)
	}
	if len(keys) == 0 {
		return nil, domain.ErrNoImagesInEvent
	}

	if err := e.indexer.ResetCollection(ctx, eventID); err != nil {
		return nil, fmt.Errorf("reset collection for event %s: %w", eventID, err)
	}

	// Phase 1: every image is indexed before any search starts, so that a
	// search can see faces from all photos.
	faces, imagesFailed := e.indexAll(ctx, logger, eventID, keys, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2
	var groups []domain.FaceGroup
	switch strategy {
	case StrategyConnected:
		groups = e.groupConnected(ctx, logger, eventID, faces, progress)
	default:
		groups = e.groupFirstMatch(ctx, logger, eventID, faces, progress)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "face groups built",
		slog.Int("images", len(keys)),
		slog.Int("images_failed", imagesFailed),
		slog.Int("faces", len(faces)),
		slog.Int("groups", len(groups)),
	)
	_ = e.auditLogger.Log(ctx, audit.Event{
		EventType: audit.EventGroupsBuilt,
		EventID:   eventID,
		Provider:  "cluster_engine",
		Success:   true,
		Metadata: map[string]string{
			"strategy": string(strategy),
			"faces":    strconv.Itoa(len(faces)),
			"groups":   strconv.Itoa(len(groups)),
		},
	})

	return &domain.FaceGroups{
		EventID:      eventID,
		Groups:       groups,
		TotalFaces:   len(faces),
		ImagesFailed: imagesFailed,
	}, nil
}

// DropCollection deletes the event's face collection once no build is
// running for it.
func (e *ClusterEngine) DropCollection(ctx context.Context, eventID string) error {
	unlock := e.lock(eventID)
	defer unlock()

	if err := e.indexer.DeleteCollection(ctx, eventID); err != nil {
		return fmt.Errorf("delete collection for event %s: %w", eventID, err)
	}
	return nil
}

func (e *ClusterEngine) lock(eventID string) func() {
	m, _ := e.locks.LoadOrStore(eventID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// indexAll returns the indexed faces in enumeration order.
func (e *ClusterEngine) indexAll(
	ctx context.Context,
	logger *slog.Logger,
	eventID string,
	keys []string,
	progress ClusterProgressFunc,
) ([]domain.FaceRecord, int) {
	perImage := make([][]domain.FaceRecord, len(keys))
	tracker := newProgressTracker(eventID, domain.ClusterPhaseIndex, len(keys), progress)

	var (
		mu     sync.Mutex
		failed int
	)
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			defer tracker.step()

			indexed, err := e.indexer.IndexFaces(ctx, eventID, key)
			if err != nil {
				logger.WarnContext(ctx, "index failed",
					slog.String("image_key", key),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			records := make([]domain.FaceRecord, 0, len(indexed))
			for _, f := range indexed {
				records = append(records, domain.FaceRecord{
					FaceID:      f.FaceID,
					ImageKey:    key,
					ImageURL:    e.images.PublicURL(key),
					BoundingBox: f.BoundingBox,
					Confidence:  f.Confidence,
				})
			}
			perImage[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var faces []domain.FaceRecord
	for _, records := range perImage {
		faces = append(faces, records...)
	}
	return faces, failed
}

// groupFirstMatch runs all searches concurrently and assigns each face as
// soon as its search returns.
func (e *ClusterEngine) groupFirstMatch(
	ctx context.Context,
	logger *slog.Logger,
	eventID string,
	faces []domain.FaceRecord,
	progress ClusterProgressFunc,
) []domain.FaceGroup {
	tracker := newProgressTracker(eventID, domain.ClusterPhaseSearch, len(faces), progress)

	var (
		mu       sync.Mutex
		groups   []domain.FaceGroup
		assigned = make(map[string]int, len(faces))
	)

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for _, face := range faces {
		g.Go(func() error {
			defer tracker.step()

			matches, err := e.indexer.SearchFaces(ctx, eventID, face.FaceID, domain.ClusterMaxFaces, domain.ClusterThreshold)
			if err != nil {
				logger.WarnContext(ctx, "face search failed, keeping face on its own",
					slog.String("face_id", face.FaceID),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()

			target := -1
			for _, m := range matches {
				if gi, ok := assigned[m.FaceID]; ok {
					target = gi
					break
				}
			}
			if target < 0 {
				groups = append(groups, domain.FaceGroup{ID: groupID(len(groups) + 1)})
				target = len(groups) - 1
			}
			groups[target].Faces = append(groups[target].Faces, face)
			assigned[face.FaceID] = target
			return nil
		})
	}
	_ = g.Wait()

	return groups
}

// groupConnected collects every search result first and then takes the
// connected components. Groups are numbered by their first face in
// enumeration order.
func (e *ClusterEngine) groupConnected(
	ctx context.Context,
	logger *slog.Logger,
	eventID string,
	faces []domain.FaceRecord,
	progress ClusterProgressFunc,
) []domain.FaceGroup {
	tracker := newProgressTracker(eventID, domain.ClusterPhaseSearch, len(faces), progress)

	index := make(map[string]int, len(faces))
	for i, f := range faces {
		index[f.FaceID] = i
	}

	neighbours := make([][]string, len(faces))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for i, face := range faces {
		g.Go(func() error {
			defer tracker.step()

			matches, err := e.indexer.SearchFaces(ctx, eventID, face.FaceID, domain.ClusterMaxFaces, domain.ClusterThreshold)
			if err != nil {
				logger.WarnContext(ctx, "face search failed",
					slog.String("face_id", face.FaceID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			ids := make([]string, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, m.FaceID)
			}
			neighbours[i] = ids
			return nil
		})
	}
	_ = g.Wait()

	uf := newUnionFind(len(faces))
	for i, ids := range neighbours {
		for _, id := range ids {
			// Only faces indexed by this run take part.
			if j, ok := index[id]; ok {
				uf.union(i, j)
			}
		}
	}

	var groups []domain.FaceGroup
	byRoot := make(map[int]int)
	for i, face := range faces {
		root := uf.find(i)
		gi, ok := byRoot[root]
		if !ok {
			groups = append(groups, domain.FaceGroup{ID: groupID(len(groups) + 1)})
			gi = len(groups) - 1
			byRoot[root] = gi
		}
		groups[gi].Faces = append(groups[gi].Faces, face)
	}
	return groups
}

func groupID(n int) string {
	return "group_" + strconv.Itoa(n)
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union keeps the smaller index as root.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// progressTracker serializes progress callbacks from concurrent workers.
type progressTracker struct {
	mu       sync.Mutex
	report   domain.ClusterProgress
	progress ClusterProgressFunc
}

func newProgressTracker(eventID, phase string, total int, progress ClusterProgressFunc) *progressTracker {
	return &progressTracker{
		report:   domain.ClusterProgress{EventID: eventID, Phase: phase, Total: total},
		progress: progress,
	}
}

func (t *progressTracker) step() {
	if t.progress == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.Done++
	t.progress(t.report)
}
