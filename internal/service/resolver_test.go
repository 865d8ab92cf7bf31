package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/domain"
)

type MockEventLookup struct {
	mock.Mock
}

func (m *MockEventLookup) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventLookup) ScanByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func TestCandidateCodes(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"482913", []string{"482913"}},
		{"123", []string{"123", "000123"}},
		{" 42 ", []string{"42", "000042"}},
		{"000123", []string{"000123", "123"}},
		{"000000", []string{"000000"}},
		{"1234567", []string{"1234567"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidateCodes(tt.raw))
		})
	}
}

func TestEventResolver_Resolve(t *testing.T) {
	padded := &domain.Event{EventID: "000123", Name: "Padded"}
	short := &domain.Event{EventID: "123", Name: "Short"}

	tests := []struct {
		name       string
		raw        string
		setupMocks func(*MockEventLookup)
		wantName   string
		wantErr    error
	}{
		{
			name: "exact match",
			raw:  "000123",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, "000123").Return(padded, nil)
			},
			wantName: "Padded",
		},
		{
			name: "typed without leading zeros",
			raw:  "123",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, "123").Return(nil, domain.ErrEventNotFound)
				m.On("GetByID", mock.Anything, "000123").Return(padded, nil)
			},
			wantName: "Padded",
		},
		{
			name: "stored without leading zeros",
			raw:  "000123",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, "000123").Return(nil, domain.ErrEventNotFound)
				m.On("GetByID", mock.Anything, "123").Return(short, nil)
			},
			wantName: "Short",
		},
		{
			name: "exact wins over normalized",
			raw:  "123",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, "123").Return(short, nil)
			},
			wantName: "Short",
		},
		{
			name: "not found anywhere",
			raw:  "999",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.ErrEventNotFound)
			},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name:       "empty code",
			raw:        "  ",
			setupMocks: func(m *MockEventLookup) {},
			wantErr:    domain.ErrEventNotFound,
		},
		{
			name: "point lookup unavailable falls back to scan",
			raw:  "482913",
			setupMocks: func(m *MockEventLookup) {
				m.On("GetByID", mock.Anything, "482913").Return(nil, errors.New("throttled"))
				m.On("ScanByID", mock.Anything, "482913").Return(&domain.Event{ID: "482913", Name: "Scanned"}, nil)
			},
			wantName: "Scanned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := new(MockEventLookup)
			tt.setupMocks(lookup)
			resolver := NewEventResolver(lookup, testLogger())

			event, err := resolver.Resolve(context.Background(), tt.raw)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, event.Name)
			lookup.AssertExpectations(t)
			lookup.AssertNotCalled(t, "ScanByID", mock.Anything, "000123")
		})
	}
}

func TestEventResolver_StoreDownIsNotNotFound(t *testing.T) {
	lookup := new(MockEventLookup)
	down := errors.New("dynamodb unavailable")
	lookup.On("GetByID", mock.Anything, mock.Anything).Return(nil, down)
	lookup.On("ScanByID", mock.Anything, mock.Anything).Return(nil, down)

	_, err := NewEventResolver(lookup, testLogger()).Resolve(context.Background(), "42")

	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, domain.ErrEventNotFound)
	lookup.AssertNumberOfCalls(t, "GetByID", 2)
	lookup.AssertNumberOfCalls(t, "ScanByID", 2)
}
