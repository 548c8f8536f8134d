package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/glossia"
)

// translateRequest is the body of POST /translation/text.
type translateRequest struct {
	Text   string          `json:"text"`
	Config translateConfig `json:"config"`
}

type translateConfig struct {
	TargetLanguage string            `json:"target_language"`
	SourceLanguage string            `json:"source_language,omitempty"`
	Domain         string            `json:"domain,omitempty"`
	Tone           string            `json:"tone,omitempty"`
	Glossary       map[string]string `json:"glossary,omitempty"`
	Context        string            `json:"context,omitempty"`
}

// translateResponse is the blocking-mode reply.
type translateResponse struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
}

// parse validates the wire config and converts it to the service form.
func (c translateConfig) parse() (glossia.TranslationConfig, error) {
	if strings.TrimSpace(c.TargetLanguage) == "" {
		return glossia.TranslationConfig{}, errors.New("config.target_language is required")
	}
	target, err := glossia.ParseLanguage(c.TargetLanguage)
	if err != nil {
		return glossia.TranslationConfig{}, fmt.Errorf("config.target_language: %w", err)
	}
	if target.IsAuto() {
		return glossia.TranslationConfig{}, errors.New("config.target_language must name a language")
	}

	source := glossia.LanguageAuto
	if c.SourceLanguage != "" {
		if source, err = glossia.ParseLanguage(c.SourceLanguage); err != nil {
			return glossia.TranslationConfig{}, fmt.Errorf("config.source_language: %w", err)
		}
	}

	tone := glossia.Tone(strings.ToLower(strings.TrimSpace(c.Tone)))
	if !tone.Valid() {
		return glossia.TranslationConfig{}, fmt.Errorf("config.tone: unknown tone %q", c.Tone)
	}

	return glossia.TranslationConfig{
		TargetLanguage: target,
		SourceLanguage: source,
		Domain:         strings.TrimSpace(c.Domain),
		Tone:           tone,
		Glossary:       c.Glossary,
		Context:        c.Context,
	}, nil
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, glossia.SupportedLanguages())
}

func (s *Server) handleTranslateText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBody)

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := req.Config.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("stream") == "false" {
		s.translateBlocking(w, r, req.Text, cfg)
		return
	}
	s.translateStreaming(w, r, req.Text, cfg)
}

func (s *Server) translateBlocking(w http.ResponseWriter, r *http.Request, text string, cfg glossia.TranslationConfig) {
	out, source, err := s.service.Translate(r.Context(), text, cfg)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{
		Text:           out,
		SourceLanguage: string(source),
	})
}

func (s *Server) translateStreaming(w http.ResponseWriter, r *http.Request, text string, cfg glossia.TranslationConfig) {
	st, err := s.service.TranslateStream(r.Context(), text, cfg)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A failed write means the client is gone; keep draining so the
	// translation goroutine can observe the cancellation and finish.
	writeFailed := false
	for inc := range st.Increments() {
		if writeFailed {
			continue
		}
		ev := deltaEvent{Chunk: inc.Chunk, Text: inc.Text}
		if inc.Err != nil {
			ev.Error = inc.Err.Error()
		}
		if err := sse.send("delta", ev); err != nil {
			writeFailed = true
		}
	}

	term := st.Termination()
	if writeFailed {
		return
	}

	switch term.Reason {
	case glossia.TerminationDone:
		_ = sse.send("done", doneEvent{SourceLanguage: string(st.Source())})
	case glossia.TerminationCanceled:
		_ = sse.send("canceled", struct{}{})
	case glossia.TerminationFailed:
		ev := errorEvent{Chunk: term.FailedChunk}
		if term.Err != nil {
			ev.Error = term.Err.Error()
		}
		_ = sse.send("error", ev)
	}
}

// writeServiceError maps service errors to HTTP statuses: invalid input
// is the caller's fault, upstream model failures are a bad gateway, and
// a canceled context means the client already left.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var transErr *glossia.TranslationError
	var provErr *glossia.ProviderError

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Nothing useful to write.
	case errors.As(err, &transErr) || errors.As(err, &provErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
