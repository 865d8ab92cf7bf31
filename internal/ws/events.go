package ws

import (
	"time"

	"github.com/chitralai/chitralai/internal/domain"
)

type EventType string

const (
	EventMatchProgress   EventType = "match.progress"
	EventMatchCompleted  EventType = "match.completed"
	EventGroupsProgress  EventType = "groups.progress"
	EventGroupsCompleted EventType = "groups.completed"
)

type Event struct {
	UserEmail string    `json:"-"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is the part of Hub the HTTP handlers need.
type Notifier interface {
	Send(userEmail string, eventType EventType, data any)
}

// MatchProgress forwards sweep progress for userEmail to notifier.
func MatchProgress(notifier Notifier, userEmail string) func(domain.SweepProgress) {
	return func(p domain.SweepProgress) {
		notifier.Send(userEmail, EventMatchProgress, p)
	}
}

// GroupsProgress forwards clustering progress for userEmail to notifier.
func GroupsProgress(notifier Notifier, userEmail string) func(domain.ClusterProgress) {
	return func(p domain.ClusterProgress) {
		notifier.Send(userEmail, EventGroupsProgress, p)
	}
}
