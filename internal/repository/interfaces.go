package repository

import (
	"context"

	"github.com/chitralai/chitralai/internal/domain"
)

// EventRepositoryInterface defines operations for event data access
type EventRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ScanByID(ctx context.Context, id string) (*domain.Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, email string) ([]domain.Event, error)
	IncrementPhotoCount(ctx context.Context, id string, delta int) (int, error)
}

// UserRepositoryInterface defines operations for user data access
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, user *domain.User) error
	AddCreatedEvent(ctx context.Context, userID, eventID string) error
}

// MatchRepositoryInterface defines operations on the attendee match cache
type MatchRepositoryInterface interface {
	Get(ctx context.Context, userID, eventID string) (*domain.AttendeeMatchRecord, error)
	Put(ctx context.Context, record *domain.AttendeeMatchRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.AttendeeMatchRecord, error)
	UpdateSelfieURL(ctx context.Context, userID, selfieURL string) (int, error)
	Delete(ctx context.Context, userID, eventID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

var (
	_ EventRepositoryInterface = (*EventRepository)(nil)
	_ UserRepositoryInterface  = (*UserRepository)(nil)
	_ MatchRepositoryInterface = (*MatchRepository)(nil)
)
