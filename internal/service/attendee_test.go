package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/storage"
)

type MockCodeResolver struct {
	mock.Mock
}

func (m *MockCodeResolver) Resolve(ctx context.Context, raw string) (*domain.Event, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

type MockSelfieSource struct {
	mock.Mock
}

func (m *MockSelfieSource) UploadForEvent(ctx context.Context, sess domain.Session, eventID string, file UploadFile) (string, error) {
	args := m.Called(ctx, sess, eventID, file.Filename)
	return args.String(0), args.Error(1)
}

func (m *MockSelfieSource) Current(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

type MockMatchFinder struct {
	mock.Mock
}

func (m *MockMatchFinder) FindMatches(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error) {
	args := m.Called(ctx, userID, event, selfieURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

func (m *MockMatchFinder) Refresh(ctx context.Context, userID string, event *domain.Event, selfieURL string, progress ProgressFunc) (*domain.MatchResult, error) {
	args := m.Called(ctx, userID, event, selfieURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

func (m *MockMatchFinder) Cached(ctx context.Context, userID, eventID string) (*domain.MatchResult, error) {
	args := m.Called(ctx, userID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchResult), args.Error(1)
}

func TestAttendeeService_FindPhotos(t *testing.T) {
	sess := domain.Session{UserEmail: testUser}
	event := &domain.Event{EventID: "000123"}
	result := &domain.MatchResult{EventID: "000123", Matches: []domain.Match{{ImageURL: "https://b/1.jpg", Similarity: 99}}}
	upload := imageUpload("me.jpg", "face")

	tests := []struct {
		name       string
		sess       domain.Session
		selfie     *UploadFile
		setupMocks func(*MockCodeResolver, *MockSelfieSource, *MockMatchFinder)
		wantErr    error
	}{
		{
			name:   "uploaded selfie",
			sess:   sess,
			selfie: &upload,
			setupMocks: func(r *MockCodeResolver, s *MockSelfieSource, m *MockMatchFinder) {
				r.On("Resolve", mock.Anything, "123").Return(event, nil)
				s.On("UploadForEvent", mock.Anything, sess, "000123", "me.jpg").Return("https://b/selfie.jpg", nil)
				m.On("Refresh", mock.Anything, testUser, event, "https://b/selfie.jpg").Return(result, nil)
			},
		},
		{
			name: "stored selfie",
			sess: sess,
			setupMocks: func(r *MockCodeResolver, s *MockSelfieSource, m *MockMatchFinder) {
				r.On("Resolve", mock.Anything, "123").Return(event, nil)
				s.On("Current", mock.Anything, testUser).Return("https://b/profile.jpg", nil)
				m.On("FindMatches", mock.Anything, testUser, event, "https://b/profile.jpg").Return(result, nil)
			},
		},
		{
			name: "no selfie at all",
			sess: sess,
			setupMocks: func(r *MockCodeResolver, s *MockSelfieSource, m *MockMatchFinder) {
				r.On("Resolve", mock.Anything, "123").Return(event, nil)
				s.On("Current", mock.Anything, testUser).Return("", domain.ErrSelfieRequired)
			},
			wantErr: domain.ErrSelfieRequired,
		},
		{
			name: "unknown code",
			sess: sess,
			setupMocks: func(r *MockCodeResolver, s *MockSelfieSource, m *MockMatchFinder) {
				r.On("Resolve", mock.Anything, "123").Return(nil, domain.ErrEventNotFound)
			},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name:       "anonymous",
			sess:       domain.Session{},
			setupMocks: func(*MockCodeResolver, *MockSelfieSource, *MockMatchFinder) {},
			wantErr:    domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, selfies, matcher := new(MockCodeResolver), new(MockSelfieSource), new(MockMatchFinder)
			tt.setupMocks(resolver, selfies, matcher)
			svc := NewAttendeeService(resolver, selfies, matcher, newMemMatchStore())

			got, err := svc.FindPhotos(context.Background(), tt.sess, "123", tt.selfie, nil)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				matcher.AssertNotCalled(t, "FindMatches", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Same(t, result, got)
			resolver.AssertExpectations(t)
			selfies.AssertExpectations(t)
			matcher.AssertExpectations(t)
		})
	}
}

func TestAttendeeService_SavedPhotos(t *testing.T) {
	resolver, matcher := new(MockCodeResolver), new(MockMatchFinder)
	resolver.On("Resolve", mock.Anything, "123").Return(&domain.Event{EventID: "000123"}, nil)
	matcher.On("Cached", mock.Anything, testUser, "000123").Return(nil, domain.ErrMatchNotCached)
	svc := NewAttendeeService(resolver, new(MockSelfieSource), matcher, newMemMatchStore())

	_, err := svc.SavedPhotos(context.Background(), domain.Session{UserEmail: testUser}, "123")

	assert.ErrorIs(t, err, domain.ErrMatchNotCached)
}

func TestAttendeeService_FindPhotos_NewSelfieReplacesStoredResult(t *testing.T) {
	keys := eventKeys(3)
	matches := newMatchFixture(t, keys, DefaultMatchConfig())
	matches.gateway.SetScores(keys[0], 97)
	selfies := newSelfieFixture(SelfieRetain)
	selfies.records = matches.store
	selfies.service = NewSelfieService(selfies.objects, selfies.profiles, matches.store, SelfieRetain, testLogger())
	selfies.service.now = func() time.Time { return time.UnixMilli(1800000000000) }
	selfies.profiles.selfies[testUser] = selfieURL()

	resolver := new(MockCodeResolver)
	resolver.On("Resolve", mock.Anything, "482913").Return(testEvent, nil)
	svc := NewAttendeeService(resolver, selfies.service, matches.engine, matches.store)
	sess := domain.Session{UserEmail: testUser}

	first, err := svc.FindPhotos(context.Background(), sess, "482913", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, keys[0], first.Matches[0].ImageKey)

	matches.gateway.SetScores(keys[0])
	matches.gateway.SetScores(keys[2], 93)
	upload := imageUpload("today.jpg", "face")

	second, err := svc.FindPhotos(context.Background(), sess, "482913", &upload, nil)

	require.NoError(t, err)
	assert.False(t, second.FromCache)
	require.Len(t, second.Matches, 1)
	assert.Equal(t, keys[2], second.Matches[0].ImageKey)

	rec, err := matches.store.Get(context.Background(), testUser, testEvent.EventID)
	require.NoError(t, err)
	assert.Equal(t, storage.PublicURL(testBucket, storage.EventSelfieKey(testEvent.EventID, 1800000000000, "today.jpg")), rec.SelfieURL)
}

func TestAttendeeService_MyPhotos(t *testing.T) {
	store := newMemMatchStore()
	store.records[testUser+"|111111"] = domain.AttendeeMatchRecord{
		UserID: testUser, EventID: "111111", EventName: "Sangeet",
		MatchedImages: []string{"https://b/1.jpg"}, LastUpdated: time.Unix(100, 0),
	}
	store.records[testUser+"|222222"] = domain.AttendeeMatchRecord{
		UserID: testUser, EventID: "222222", EventName: "Wedding", CoverImage: "https://b/cover.jpg",
		MatchedImages: []string{"https://b/2.jpg", "https://b/3.jpg"}, LastUpdated: time.Unix(200, 0),
	}
	store.records[testUser+"|333333"] = domain.AttendeeMatchRecord{
		UserID: testUser, EventID: "333333", MatchedImages: []string{}, ExpiresAt: 999, LastUpdated: time.Unix(300, 0),
	}
	store.records["other@example.com|111111"] = domain.AttendeeMatchRecord{
		UserID: "other@example.com", EventID: "111111", MatchedImages: []string{"https://b/9.jpg"},
	}
	svc := NewAttendeeService(new(MockCodeResolver), new(MockSelfieSource), new(MockMatchFinder), store)

	got, err := svc.MyPhotos(context.Background(), domain.Session{UserEmail: testUser})

	require.NoError(t, err)
	assert.Equal(t, []domain.EventPhotos{
		{EventID: "222222", EventName: "Wedding", CoverImage: "https://b/cover.jpg", Images: []string{"https://b/2.jpg", "https://b/3.jpg"}, LastUpdated: time.Unix(200, 0)},
		{EventID: "111111", EventName: "Sangeet", Images: []string{"https://b/1.jpg"}, LastUpdated: time.Unix(100, 0)},
	}, got)

	_, err = svc.MyPhotos(context.Background(), domain.Session{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
