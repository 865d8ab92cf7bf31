package domain

import "time"

// Similarity thresholds on the gateway's 0-100 scale.
const (
	// GatewayThreshold is sent to the comparison service; weaker candidates
	// are never returned.
	GatewayThreshold = 80.0
	// AcceptanceThreshold is applied by the engine to whatever the gateway
	// returns. It is lower than GatewayThreshold so it only matters if the
	// gateway threshold is relaxed.
	AcceptanceThreshold = 70.0
	// ClusterThreshold is the FaceMatchThreshold used when grouping faces.
	ClusterThreshold = 99.0
	// ClusterMaxFaces caps how many neighbours one face search returns.
	ClusterMaxFaces = 5
)

// AttendeeMatchRecord caches the outcome of a sweep for one (user, event).
type AttendeeMatchRecord struct {
	UserID        string    `json:"user_id" dynamodbav:"userId"`
	EventID       string    `json:"event_id" dynamodbav:"eventId"`
	SelfieURL     string    `json:"selfie_url" dynamodbav:"selfieURL"`
	MatchedImages []string  `json:"matched_images" dynamodbav:"matchedImages"`
	MatchScores   []float64 `json:"match_scores,omitempty" dynamodbav:"matchScores,omitempty"`
	EventName     string    `json:"event_name,omitempty" dynamodbav:"eventName,omitempty"`
	CoverImage    string    `json:"cover_image,omitempty" dynamodbav:"coverImage,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at" dynamodbav:"uploadedAt"`
	LastUpdated   time.Time `json:"last_updated" dynamodbav:"lastUpdated"`
	// ExpiresAt is a unix timestamp. Only zero-result records carry it.
	ExpiresAt int64 `json:"-" dynamodbav:"expiresAt,omitempty"`
}

// Expired reports whether a record with a TTL has lapsed at now.
func (r *AttendeeMatchRecord) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}

// Matches rebuilds the ranked list from the stored parallel slices.
func (r *AttendeeMatchRecord) Matches() []Match {
	out := make([]Match, 0, len(r.MatchedImages))
	for i, url := range r.MatchedImages {
		m := Match{ImageURL: url}
		if i < len(r.MatchScores) {
			m.Similarity = r.MatchScores[i]
		}
		out = append(out, m)
	}
	return out
}

// EventPhotos lists the photos of one event a user was found in.
type EventPhotos struct {
	EventID     string    `json:"event_id"`
	EventName   string    `json:"event_name"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Images      []string  `json:"images"`
	LastUpdated time.Time `json:"last_updated"`
}

// DownloadReport lists the local files written by a photo download.
type DownloadReport struct {
	Dir    string            `json:"dir"`
	Saved  []string          `json:"saved"`
	Failed []DownloadFailure `json:"failed"`
}

type DownloadFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Match is one accepted event image.
type Match struct {
	ImageKey   string  `json:"image_key,omitempty"`
	ImageURL   string  `json:"image_url"`
	Similarity float64 `json:"similarity"`
}

// MatchResult is the ranked outcome of findMatches.
type MatchResult struct {
	EventID   string  `json:"event_id"`
	Matches   []Match `json:"matches"`
	FromCache bool    `json:"from_cache"`
	Scanned   int     `json:"scanned"`
	Failed    int     `json:"failed"`
}

// SweepProgress is reported after every batch of a sweep.
type SweepProgress struct {
	EventID    string  `json:"event_id"`
	Batch      int     `json:"batch"`
	Batches    int     `json:"batches"`
	Processed  int     `json:"processed"`
	Total      int     `json:"total"`
	Failed     int     `json:"failed"`
	NewMatches []Match `json:"new_matches,omitempty"`
}
