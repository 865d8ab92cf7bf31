package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testBucket = "chitral-photos"

// fakeImageStore serves a fixed listing.
type fakeImageStore struct {
	keys    []string
	listErr error
	lists   int
}

func (f *fakeImageStore) ListImageKeys(_ context.Context, prefix string) ([]string, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []string
	for _, k := range f.keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix && storage.IsImageKey(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeImageStore) PublicURL(key string) string {
	return storage.PublicURL(testBucket, key)
}

func (f *fakeImageStore) KeyFromURL(ref string) (string, bool) {
	return storage.KeyFromURL(testBucket, ref)
}

// memMatchStore is an in-memory attendee match cache.
type memMatchStore struct {
	mu      sync.Mutex
	records map[string]domain.AttendeeMatchRecord
	puts    int
	putErr  error
	getErr  error
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{records: make(map[string]domain.AttendeeMatchRecord)}
}

func (m *memMatchStore) Get(_ context.Context, userID, eventID string) (*domain.AttendeeMatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[userID+"|"+eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *memMatchStore) Put(_ context.Context, rec *domain.AttendeeMatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.records[rec.UserID+"|"+rec.EventID] = *rec
	return nil
}

func (m *memMatchStore) ListByUser(_ context.Context, userID string) ([]domain.AttendeeMatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AttendeeMatchRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (m *memMatchStore) UpdateSelfieURL(_ context.Context, userID, selfieURL string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, rec := range m.records {
		if rec.UserID == userID {
			rec.SelfieURL = selfieURL
			m.records[k] = rec
			n++
		}
	}
	return n, nil
}

func (m *memMatchStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, rec := range m.records {
		if rec.UserID == userID {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

// memProfiles is an in-memory user table holding profile selfies.
type memProfiles struct {
	mu      sync.Mutex
	selfies map[string]string
	getErr  error
	setErr  error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{selfies: make(map[string]string)}
}

func (m *memProfiles) GetByID(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	url, ok := m.selfies[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.User{UserID: userID, Email: userID, SelfieURL: url}, nil
}

func (m *memProfiles) SetSelfieURL(_ context.Context, userID, selfieURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return "", m.setErr
	}
	previous := m.selfies[userID]
	m.selfies[userID] = selfieURL
	return previous, nil
}

// memObjects records Put calls; keys listed in fail are rejected.
type memObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	fail      map[string]error
	deleteErr error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte), fail: make(map[string]error)}
}

func (m *memObjects) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for suffix, err := range m.fail {
		if bytes.HasSuffix([]byte(key), []byte(suffix)) {
			return "", err
		}
	}
	m.objects[key] = data
	return storage.PublicURL(testBucket, key), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) KeyFromURL(ref string) (string, bool) {
	return storage.KeyFromURL(testBucket, ref)
}

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func imageUpload(name string, data string) UploadFile {
	return UploadFile{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(data))), nil
		},
	}
}
