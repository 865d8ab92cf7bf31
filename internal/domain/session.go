package domain

// PendingAction is what the user was doing before being asked to sign in.
type PendingAction string

const (
	PendingNone        PendingAction = ""
	PendingGetPhotos   PendingAction = "getPhotos"
	PendingUploadPhoto PendingAction = "uploadPhotos"
	PendingCreateEvent PendingAction = "createEvent"
)

// Session is the per-request user context. It is built once per request and
// passed explicitly; nothing reads it from global state.
type Session struct {
	UserEmail      string        `json:"user_email"`
	PendingAction  PendingAction `json:"pending_action,omitempty"`
	CurrentEventID string        `json:"current_event_id,omitempty"`
}

// Authenticated reports whether the session carries a user identity.
func (s Session) Authenticated() bool {
	return s.UserEmail != ""
}
