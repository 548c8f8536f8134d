// Package transcribe streams speech-to-text output from an external
// whisper-compatible transcription server.
package transcribe

import (
	"context"
	"io"

	"github.com/ZaguanLabs/glossia"
)

// Transcriber converts an audio upload into a stream of transcript
// fragments.
type Transcriber interface {
	// Transcribe starts a transcription. Fragments arrive through the
	// returned Stream; the call itself returns once the upstream server
	// has accepted the audio.
	Transcribe(ctx context.Context, req Request) (Stream, error)
}

// Request describes one transcription call.
type Request struct {
	Filename    string           // Original upload filename
	ContentType string           // MIME type of the audio payload
	Audio       io.Reader        // Audio bytes
	Language    glossia.Language // Spoken language, LanguageAuto to infer
}

// Stream yields transcript fragments. Recv returns io.EOF once the
// transcript is complete. Close releases the underlying connection and
// may be called more than once.
type Stream interface {
	Recv() (string, error)
	Close() error
}
