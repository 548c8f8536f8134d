package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/ZaguanLabs/glossia"
	"github.com/ZaguanLabs/glossia/transcribe"
)

// transcriptDelta is one transcript fragment.
type transcriptDelta struct {
	Text string `json:"text"`
}

func (s *Server) handleTranscribeAudio(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "audio_file" upload`)
		return
	}
	defer file.Close()

	language, err := glossia.ParseLanguage(r.FormValue("language"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "language: "+err.Error())
		return
	}

	s.record(r, "transcription.audio",
		"file_size", header.Size,
		"language", string(language),
	)

	stream, err := s.transcriber.Transcribe(r.Context(), transcribe.Request{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Audio:       file,
		Language:    language,
	})
	if err != nil {
		if r.Context().Err() == nil {
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	defer stream.Close()

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			_ = sse.send("done", struct{}{})
			return
		}
		if err != nil {
			if r.Context().Err() != nil {
				_ = sse.send("canceled", struct{}{})
				return
			}
			_ = sse.send("error", errorResponse{Error: err.Error()})
			return
		}
		if sse.send("delta", transcriptDelta{Text: frag}) != nil {
			// Client is gone; the request context cancels the upstream
			// call, just stop relaying.
			return
		}
	}
}
