package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// sseWriter emits server-sent events. Every payload is a single JSON
// object so fragment text with newlines survives the wire format.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares w for event streaming and commits the response
// headers.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// send writes one named event with a JSON payload and flushes it out.
func (s *sseWriter) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// deltaEvent is one translated fragment, or a failure marker for the
// chunk when Error is set.
type deltaEvent struct {
	Chunk int    `json:"chunk"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// doneEvent terminates a successful stream.
type doneEvent struct {
	SourceLanguage string `json:"source_language"`
}

// errorEvent terminates a failed stream, citing the first unrecoverable
// chunk.
type errorEvent struct {
	Chunk int    `json:"chunk"`
	Error string `json:"error"`
}
