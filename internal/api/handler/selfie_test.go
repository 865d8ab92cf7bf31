package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
)

type MockSelfieService struct {
	mock.Mock
}

func (m *MockSelfieService) Upload(ctx context.Context, sess domain.Session, file service.UploadFile) (string, error) {
	args := m.Called(ctx, sess, file.Filename, file.ContentType)
	return args.String(0), args.Error(1)
}

func TestSelfieHandler_Upload(t *testing.T) {
	tests := []struct {
		name       string
		parts      []filePart
		setupMocks func(*MockSelfieService)
		wantStatus int
		wantURL    string
	}{
		{
			name:  "stored",
			parts: []filePart{{"selfie", "me.jpg", "image/jpeg", []byte("face")}},
			setupMocks: func(m *MockSelfieService) {
				m.On("Upload", mock.Anything, session(guestEmail, ""), "me.jpg", "image/jpeg").
					Return("https://b/users/guest@example.com/selfies/selfie-1-me.jpg", nil)
			},
			wantStatus: 200,
			wantURL:    "https://b/users/guest@example.com/selfies/selfie-1-me.jpg",
		},
		{
			name:  "not an image",
			parts: []filePart{{"selfie", "me.heic", "image/heic", []byte("face")}},
			setupMocks: func(m *MockSelfieService) {
				m.On("Upload", mock.Anything, mock.Anything, "me.heic", "image/heic").Return("", domain.ErrInvalidImage)
			},
			wantStatus: 422,
		},
		{
			name:       "missing file",
			parts:      []filePart{{"photo", "me.jpg", "image/jpeg", []byte("face")}},
			setupMocks: func(*MockSelfieService) {},
			wantStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSelfieService)
			tt.setupMocks(svc)
			h := NewSelfieHandler(svc, testLogger())
			app := newTestApp(func(app *fiber.App) { app.Put("/v1/users/me/selfie", h.Upload) })

			body, contentType := multipartBody(t, tt.parts...)
			req := httptest.NewRequest("PUT", "/v1/users/me/selfie", body)
			req.Header.Set("Content-Type", contentType)
			resp, respBody := doRequest(t, app, req, guestEmail)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantURL != "" {
				var got SelfieResponse
				require.NoError(t, json.Unmarshal(respBody, &got))
				assert.Equal(t, tt.wantURL, got.SelfieURL)
			}
			svc.AssertExpectations(t)
		})
	}
}
