package domain

import (
	"strings"
	"time"
)

// Event codes are 6-digit numbers in [EventCodeMin, EventCodeMax].
const (
	EventCodeLength = 6
	EventCodeMin    = 100000
	EventCodeMax    = 999999
)

// Event is an organizer's gallery. The record carries both eventId and id
// because older records were written with only one of the two.
type Event struct {
	EventID          string    `json:"event_id" dynamodbav:"eventId"`
	ID               string    `json:"-" dynamodbav:"id,omitempty"`
	Name             string    `json:"name" dynamodbav:"name"`
	Date             string    `json:"date,omitempty" dynamodbav:"date,omitempty"`
	Description      string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	CoverImage       string    `json:"cover_image,omitempty" dynamodbav:"coverImage,omitempty"`
	EventURL         string    `json:"event_url,omitempty" dynamodbav:"eventUrl,omitempty"`
	OwnerEmail       string    `json:"owner_email" dynamodbav:"userEmail"`
	OrganizerID      string    `json:"-" dynamodbav:"organizerId,omitempty"`
	UserID           string    `json:"-" dynamodbav:"userId,omitempty"`
	EmailAccess      []string  `json:"email_access,omitempty" dynamodbav:"emailAccess,omitempty"`
	OrganizationCode string    `json:"organization_code,omitempty" dynamodbav:"organizationCode,omitempty"`
	PhotoCount       int       `json:"photo_count" dynamodbav:"photoCount"`
	VideoCount       int       `json:"video_count" dynamodbav:"videoCount"`
	GuestCount       int       `json:"guest_count" dynamodbav:"guestCount"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt        time.Time `json:"updated_at" dynamodbav:"updatedAt"`
}

// Key returns the identifier the event is stored under.
func (e *Event) Key() string {
	if e.EventID != "" {
		return e.EventID
	}
	return e.ID
}

// IsOwner reports whether email created the event.
func (e *Event) IsOwner(email string) bool {
	if email == "" {
		return false
	}
	for _, owner := range []string{e.OwnerEmail, e.OrganizerID, e.UserID} {
		if strings.EqualFold(owner, email) {
			return true
		}
	}
	return false
}

// CanManage reports whether email may upload to or inspect the event:
// the owner plus anyone on the emailAccess list.
func (e *Event) CanManage(email string) bool {
	if e.IsOwner(email) {
		return true
	}
	for _, allowed := range e.EmailAccess {
		if email != "" && strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

// GrantAccess adds email to the access list, ignoring duplicates.
// Returns false when nothing changed.
func (e *Event) GrantAccess(email string) bool {
	if e.CanManage(email) {
		return false
	}
	e.EmailAccess = append(e.EmailAccess, strings.ToLower(email))
	return true
}

// CreateEventInput is what an organizer supplies when creating an event.
type CreateEventInput struct {
	Name             string   `json:"name" form:"name"`
	Date             string   `json:"date" form:"date"`
	Description      string   `json:"description" form:"description"`
	EmailAccess      []string `json:"email_access" form:"email_access"`
	OrganizationCode string   `json:"organization_code" form:"organization_code"`
}

// UploadedFile is one stored upload.
type UploadedFile struct {
	Filename string `json:"filename"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

// UploadFailure is one rejected or failed upload.
type UploadFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// UploadReport summarizes a multi-file upload. Files are reported
// individually; one failure does not fail the request.
type UploadReport struct {
	EventID    string          `json:"event_id"`
	Uploaded   []UploadedFile  `json:"uploaded"`
	Failed     []UploadFailure `json:"failed"`
	PhotoCount int             `json:"photo_count"`
}
