package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/provider"
)

// newTestHandler builds the full handler chain around a mock-backed
// service.
func newTestHandler(opts ...ServerOption) (*provider.MockCompleter, http.Handler) {
	mock := provider.NewMockCompleter()
	svc := glossia.NewService(mock)
	return mock, NewServer(svc, opts...).Handler()
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

// parseEvents splits an SSE response body into its events.
func parseEvents(body string) []sseEvent {
	var events []sseEvent
	var cur sseEvent
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

// decodeError reads the JSON error body of a failed request.
func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error
}

// multipartUpload builds a multipart body with one file part and
// optional extra fields.
func multipartUpload(t *testing.T, field, filename, contentType string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("writing form file: %v", err)
	}

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	_, handler := newTestHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestRouting(t *testing.T) {
	_, handler := newTestHandler()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"wrong method", http.MethodGet, "/translation/text", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	_, handler := newTestHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Expected allowed methods, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-Client-Id" {
		t.Errorf("Expected allowed headers, got %q", got)
	}
	if got := w.Header().Get("Vary"); got != "" {
		t.Errorf("Expected no Vary header for the wildcard origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, handler := newTestHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/translation/text", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected an empty preflight body, got %q", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin on preflight, got %q", got)
	}
}

func TestCORSRestrictedOrigin(t *testing.T) {
	_, handler := newTestHandler(WithClientURL("https://app.example.com"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected the configured origin, got %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Expected Vary: Origin, got %q", got)
	}
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, handler := newTestHandler(WithLogger(zap.New(core).Sugar()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 request log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["method"] != "GET" {
		t.Errorf("Expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/healthz" {
		t.Errorf("Expected path /healthz, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("Expected status 200, got %v", fields["status"])
	}
}
