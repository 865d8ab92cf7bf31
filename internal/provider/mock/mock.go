package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/provider"
)

// Provider is an in-memory provider.FaceGateway for development and tests.
// Unscripted comparisons return a deterministic pseudo-score derived from the
// two keys; every behaviour can be overridden per image.
type Provider struct {
	mu sync.Mutex

	scores        map[string][]float64
	compareErrors map[string]error
	delays        map[string]time.Duration

	// people maps image key to the person label of each face in it.
	people       map[string][]string
	indexErrors  map[string]error
	searchErrors map[string]error

	collections map[string]map[string]indexedFace
	faceSeq     int

	compareCalls atomic.Int64
	indexCalls   atomic.Int64
	searchCalls  atomic.Int64
	inFlight     atomic.Int64
	maxInFlight  atomic.Int64
}

type indexedFace struct {
	imageKey string
	person   string
}

var _ provider.FaceGateway = (*Provider)(nil)

// New creates an empty mock gateway
func New() *Provider {
	return &Provider{
		scores:        make(map[string][]float64),
		compareErrors: make(map[string]error),
		delays:        make(map[string]time.Duration),
		people:        make(map[string][]string),
		indexErrors:   make(map[string]error),
		searchErrors:  make(map[string]error),
		collections:   make(map[string]map[string]indexedFace),
	}
}

// SetScores scripts the similarity of each face CompareFaces finds in targetKey.
// An empty call scripts "no match".
func (p *Provider) SetScores(targetKey string, scores ...float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scores[targetKey] = scores
}

// SetCompareError makes every comparison against targetKey fail.
func (p *Provider) SetCompareError(targetKey string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compareErrors[targetKey] = err
}

// SetDelay makes comparisons against targetKey block for d or until the
// context is done.
func (p *Provider) SetDelay(targetKey string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays[targetKey] = d
}

// SetFaces scripts the faces in imageKey, one person label per face.
// Faces sharing a label are returned by SearchFaces for each other.
func (p *Provider) SetFaces(imageKey string, people ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.people[imageKey] = people
}

// SetIndexError makes IndexFaces fail for imageKey.
func (p *Provider) SetIndexError(imageKey string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexErrors[imageKey] = err
}

// SetSearchError makes SearchFaces fail for faces found in imageKey.
func (p *Provider) SetSearchError(imageKey string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchErrors[imageKey] = err
}

// CompareCalls reports how many comparisons were issued.
func (p *Provider) CompareCalls() int { return int(p.compareCalls.Load()) }

// IndexCalls reports how many index calls were issued.
func (p *Provider) IndexCalls() int { return int(p.indexCalls.Load()) }

// SearchCalls reports how many search calls were issued.
func (p *Provider) SearchCalls() int { return int(p.searchCalls.Load()) }

// MaxInFlight reports the highest number of concurrent comparisons observed.
func (p *Provider) MaxInFlight() int { return int(p.maxInFlight.Load()) }

// CompareFaces returns the scripted or pseudo-random scores above threshold.
func (p *Provider) CompareFaces(ctx context.Context, sourceKey, targetKey string, threshold float64) ([]provider.CompareMatch, error) {
	p.compareCalls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.maxInFlight.Load()
		if n <= peak || p.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	p.mu.Lock()
	scores, scripted := p.scores[targetKey]
	err := p.compareErrors[targetKey]
	delay := p.delays[targetKey]
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !scripted {
		scores = []float64{pseudoScore(sourceKey, targetKey)}
	}

	matches := make([]provider.CompareMatch, 0, len(scores))
	for _, s := range scores {
		if s >= threshold {
			matches = append(matches, provider.CompareMatch{
				Similarity:  s,
				BoundingBox: domain.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.8, Height: 0.8},
			})
		}
	}
	return matches, nil
}

// ResetCollection replaces the event's collection with an empty one.
func (p *Provider) ResetCollection(_ context.Context, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collections[eventID] = make(map[string]indexedFace)
	return nil
}

// DeleteCollection drops the event's collection.
func (p *Provider) DeleteCollection(_ context.Context, eventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.collections, eventID)
	return nil
}

// CollectionSize reports how many faces the event's collection holds.
func (p *Provider) CollectionSize(eventID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.collections[eventID])
}

// IndexFaces stores one face per scripted person, or a single unique face
// when imageKey was not scripted. Like Rekognition, every call mints new face
// ids, so indexing an image twice leaves duplicates in the collection.
func (p *Provider) IndexFaces(_ context.Context, eventID, imageKey string) ([]provider.IndexedFace, error) {
	p.indexCalls.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.indexErrors[imageKey]; err != nil {
		return nil, err
	}
	coll, ok := p.collections[eventID]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", eventID)
	}

	people, scripted := p.people[imageKey]
	if !scripted {
		people = []string{imageKey}
	}

	faces := make([]provider.IndexedFace, 0, len(people))
	for i, person := range people {
		p.faceSeq++
		id := faceID(eventID, imageKey, p.faceSeq)
		coll[id] = indexedFace{imageKey: imageKey, person: person}
		faces = append(faces, provider.IndexedFace{
			FaceID:      id,
			BoundingBox: domain.BoundingBox{Left: 0.1 * float64(i), Top: 0.1, Width: 0.1, Height: 0.1},
			Confidence:  99.9,
		})
	}
	return faces, nil
}

// SearchFaces returns other faces of the same person. Copies of the query face
// indexed from the same image rank first, as they would on Rekognition.
func (p *Provider) SearchFaces(_ context.Context, eventID, faceID string, maxFaces int, _ float64) ([]provider.FaceMatch, error) {
	p.searchCalls.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	coll, ok := p.collections[eventID]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", eventID)
	}
	query, ok := coll[faceID]
	if !ok {
		return nil, fmt.Errorf("face %s not found", faceID)
	}
	if err := p.searchErrors[query.imageKey]; err != nil {
		return nil, err
	}

	var matches []provider.FaceMatch
	for id, f := range coll {
		if id == faceID || f.person != query.person {
			continue
		}
		similarity := 99.5
		if f.imageKey == query.imageKey {
			similarity = 99.99
		}
		matches = append(matches, provider.FaceMatch{FaceID: id, Similarity: similarity})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].FaceID < matches[j].FaceID
	})
	if maxFaces > 0 && len(matches) > maxFaces {
		matches = matches[:maxFaces]
	}
	return matches, nil
}

func faceID(eventID, imageKey string, seq int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", eventID, imageKey, seq)))
	return hex.EncodeToString(sum[:8])
}

// pseudoScore maps a key pair onto [0, 100).
func pseudoScore(sourceKey, targetKey string) float64 {
	sum := sha256.Sum256([]byte(sourceKey + "|" + targetKey))
	return float64(binary.BigEndian.Uint16(sum[:2])%10000) / 100
}
