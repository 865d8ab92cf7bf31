package provider

import (
	"context"

	"github.com/chitralai/chitralai/internal/domain"
)

// FaceComparer compares a reference face against an event image, both
// addressed by object key in the shared bucket.
type FaceComparer interface {
	// CompareFaces returns one entry per face in targetKey that matched the
	// largest face in sourceKey at or above threshold (0-100 scale).
	// An empty slice means no match and is not an error.
	CompareFaces(ctx context.Context, sourceKey, targetKey string, threshold float64) ([]CompareMatch, error)
}

// FaceIndexer manages the face collection that belongs to one event.
// Implementations derive the collection id from the event id.
type FaceIndexer interface {
	// ResetCollection leaves an empty collection behind, creating it if it
	// is missing. Faces indexed by earlier runs are gone afterwards.
	ResetCollection(ctx context.Context, eventID string) error

	// DeleteCollection removes the collection. A missing collection is not
	// an error.
	DeleteCollection(ctx context.Context, eventID string) error

	// IndexFaces detects every face in imageKey and adds it to the collection.
	IndexFaces(ctx context.Context, eventID, imageKey string) ([]IndexedFace, error)

	// SearchFaces finds faces in the collection similar to faceID.
	// The query face itself is not part of the result.
	SearchFaces(ctx context.Context, eventID, faceID string, maxFaces int, threshold float64) ([]FaceMatch, error)
}

// FaceGateway is the full set of operations a backend offers.
type FaceGateway interface {
	FaceComparer
	FaceIndexer
}

// CompareMatch is one matched face in the target image.
type CompareMatch struct {
	Similarity  float64            `json:"similarity"`
	BoundingBox domain.BoundingBox `json:"bounding_box"`
}

// IndexedFace is a face stored in a collection.
type IndexedFace struct {
	FaceID      string             `json:"face_id"`
	BoundingBox domain.BoundingBox `json:"bounding_box"`
	Confidence  float64            `json:"confidence"`
}

// FaceMatch is a search hit.
type FaceMatch struct {
	FaceID     string  `json:"face_id"`
	Similarity float64 `json:"similarity"`
}
