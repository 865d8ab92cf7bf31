package domain

// BoundingBox is expressed as ratios of the image dimensions.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceRecord is one face detected in one event image.
type FaceRecord struct {
	FaceID      string      `json:"face_id"`
	ImageKey    string      `json:"image_key"`
	ImageURL    string      `json:"image_url"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// FaceGroup is a set of faces believed to belong to the same person.
// The first face is the representative.
type FaceGroup struct {
	ID    string       `json:"id"`
	Faces []FaceRecord `json:"faces"`
}

// Representative returns the face shown for the group.
func (g *FaceGroup) Representative() FaceRecord {
	if len(g.Faces) == 0 {
		return FaceRecord{}
	}
	return g.Faces[0]
}

// ImageKeys lists distinct images containing a face of the group, in the
// order the faces were added.
func (g *FaceGroup) ImageKeys() []string {
	seen := make(map[string]struct{}, len(g.Faces))
	keys := make([]string, 0, len(g.Faces))
	for _, f := range g.Faces {
		if _, ok := seen[f.ImageKey]; ok {
			continue
		}
		seen[f.ImageKey] = struct{}{}
		keys = append(keys, f.ImageKey)
	}
	return keys
}

// FaceGroups is the result of a clustering run. Groups are ordered by id
// creation order.
type FaceGroups struct {
	EventID      string      `json:"event_id"`
	Groups       []FaceGroup `json:"groups"`
	TotalFaces   int         `json:"total_faces"`
	ImagesFailed int         `json:"images_failed"`
}

// Group looks up a group by id.
func (fg *FaceGroups) Group(id string) (*FaceGroup, bool) {
	for i := range fg.Groups {
		if fg.Groups[i].ID == id {
			return &fg.Groups[i], true
		}
	}
	return nil, false
}

// Clustering phases reported through ClusterProgress.
const (
	ClusterPhaseIndex  = "index"
	ClusterPhaseSearch = "search"
)

// ClusterProgress is reported as index and search calls complete.
type ClusterProgress struct {
	EventID string `json:"event_id"`
	Phase   string `json:"phase"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
}
