package domain

import "time"

// User is keyed by email. Role is informational only; authorization is
// always derived from the event record.
type User struct {
	UserID           string    `json:"user_id" dynamodbav:"userId"`
	Email            string    `json:"email" dynamodbav:"email"`
	Name             string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Mobile           string    `json:"mobile,omitempty" dynamodbav:"mobile,omitempty"`
	Role             string    `json:"role,omitempty" dynamodbav:"role,omitempty"`
	OrganizationName string    `json:"organization_name,omitempty" dynamodbav:"organizationName,omitempty"`
	OrganizationCode string    `json:"organization_code,omitempty" dynamodbav:"organizationCode,omitempty"`
	OrganizationLogo string    `json:"organization_logo,omitempty" dynamodbav:"organizationLogo,omitempty"`
	SelfieURL        string    `json:"selfie_url,omitempty" dynamodbav:"selfieURL,omitempty"`
	CreatedEvents    []string  `json:"created_events,omitempty" dynamodbav:"createdEvents,omitempty"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt        time.Time `json:"updated_at" dynamodbav:"updatedAt"`
}

// AddCreatedEvent records eventID on the user, returning false if it was
// already present.
func (u *User) AddCreatedEvent(eventID string) bool {
	for _, id := range u.CreatedEvents {
		if id == eventID {
			return false
		}
	}
	u.CreatedEvents = append(u.CreatedEvents, eventID)
	return true
}
