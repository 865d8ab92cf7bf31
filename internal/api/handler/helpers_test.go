package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/ws"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires the session middleware and the real error handler.
func newTestApp(routes func(app *fiber.App)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
	app.Use(middleware.Session())
	routes(app)
	return app
}

type filePart struct {
	field, filename, contentType string
	content                      []byte
}

func multipartBody(t *testing.T, parts ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, writer.WriteField(p.field, string(p.content)))
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(p.content)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, user string) (*http.Response, []byte) {
	t.Helper()
	if user != "" {
		req.Header.Set(middleware.HeaderUserEmail, user)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func jsonRequest(method, target string, v any) *http.Request {
	payload, _ := json.Marshal(v)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Code
}

type sentEvent struct {
	user      string
	eventType ws.EventType
	data      any
}

// recordingNotifier captures hub traffic.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *recordingNotifier) Send(user string, eventType ws.EventType, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{user: user, eventType: eventType, data: data})
}

func (r *recordingNotifier) types() []ws.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ws.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.eventType)
	}
	return out
}
