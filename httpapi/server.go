// Package httpapi exposes the translation service over HTTP: JSON and
// SSE endpoints for text translation, document conversion and audio
// transcription, with request logging and CORS for the web client.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/transcribe"
	"github.com/ZaguanLabs/glossia/usage"
)

const (
	// maxTextBody bounds JSON translation request bodies.
	maxTextBody = 10 << 20

	// maxUploadBytes bounds document and audio uploads.
	maxUploadBytes = 100 << 20

	// multipartMemory is how much of an upload is held in memory before
	// spilling to disk.
	multipartMemory = 32 << 20
)

// Server routes HTTP requests to the translation service and its
// collaborators.
type Server struct {
	service     *glossia.Service
	converter   glossia.Converter
	transcriber transcribe.Transcriber
	tracker     *usage.Tracker
	logger      *zap.SugaredLogger
	clientURL   string
	mux         *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithConverter enables the document conversion endpoint.
func WithConverter(converter glossia.Converter) ServerOption {
	return func(s *Server) {
		s.converter = converter
	}
}

// WithTranscriber enables the audio transcription endpoint.
func WithTranscriber(transcriber transcribe.Transcriber) ServerOption {
	return func(s *Server) {
		s.transcriber = transcriber
	}
}

// WithTracker enables usage event tracking.
func WithTracker(tracker *usage.Tracker) ServerOption {
	return func(s *Server) {
		s.tracker = tracker
	}
}

// WithLogger sets the request logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClientURL restricts CORS to the given origin. The default "*"
// allows any origin.
func WithClientURL(url string) ServerOption {
	return func(s *Server) {
		s.clientURL = url
	}
}

// NewServer creates an HTTP server around the translation service.
func NewServer(service *glossia.Service, opts ...ServerOption) *Server {
	s := &Server{
		service:   service,
		logger:    zap.NewNop().Sugar(),
		clientURL: "*",
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /translation/languages", s.handleLanguages)
	s.mux.HandleFunc("POST /translation/text", s.handleTranslateText)
	s.mux.HandleFunc("POST /convert/doc", s.handleConvertDoc)
	s.mux.HandleFunc("POST /transcription/audio", s.handleTranscribeAudio)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.logging(s.cors(s.mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// record logs a usage event when tracking is enabled.
func (s *Server) record(r *http.Request, event string, keysAndValues ...any) {
	if s.tracker == nil {
		return
	}
	s.tracker.Record(r.Context(), event, r.Header.Get("X-Client-Id"), keysAndValues...)
}

// logging wraps next with per-request zap logging.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// cors sets the CORS headers for the configured client origin and
// answers preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.clientURL)
		if s.clientURL != "*" {
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Client-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log. It
// forwards Flush so SSE keeps working through the middleware chain.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
