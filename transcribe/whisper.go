package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/ZaguanLabs/glossia"
)

// doneSentinel ends some servers' SSE streams before the connection
// closes.
const doneSentinel = "[DONE]"

// WhisperClient proxies audio to a whisper-compatible server exposing
// POST {base}/audio/transcriptions/stream and relays the server-sent
// transcript back as plain fragments.
type WhisperClient struct {
	baseURL string
	client  *http.Client
}

// WhisperConfig holds settings for the transcription server.
type WhisperConfig struct {
	BaseURL string       // Server endpoint, e.g. "http://whisper:9000"
	Client  *http.Client // Optional; defaults to a client without an overall timeout
}

// NewWhisperClient creates a client for the transcription server. No
// overall timeout is set by default because transcripts stream for as
// long as the audio runs; bound calls through ctx instead.
func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	return &WhisperClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}
}

// Transcribe implements Transcriber. The audio is streamed upstream as
// a multipart upload; the response body is consumed lazily through the
// returned Stream.
func (c *WhisperClient) Transcribe(ctx context.Context, req Request) (Stream, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, req)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions/stream", pr)
	if err != nil {
		return nil, &glossia.TranscriptionError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", glossia.UserAgent())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &glossia.TranscriptionError{Message: "calling transcription server", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &glossia.TranscriptionError{
			Message: fmt.Sprintf("transcription server returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}

	return &whisperStream{
		ctx:     ctx,
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// writeUpload emits the multipart form the whisper server expects: the
// audio under "file" with its original name and type, response_format
// pinned to text, and the language unless it should be inferred.
func writeUpload(mw *multipart.Writer, req Request) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Filename))
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return err
	}

	if err := mw.WriteField("response_format", "text"); err != nil {
		return err
	}
	if !req.Language.IsAuto() {
		if err := mw.WriteField("language", string(req.Language)); err != nil {
			return err
		}
	}
	return nil
}

// whisperStream reads server-sent events off the response body and
// yields the data payloads.
type whisperStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner

	mu     sync.Mutex
	closed bool
}

// Recv returns the next transcript fragment. Blank keep-alive lines and
// non-data SSE fields are skipped.
func (s *whisperStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimPrefix(line, "data:")
		payload = strings.TrimPrefix(payload, " ")
		if payload == doneSentinel {
			return "", io.EOF
		}
		if payload == "" {
			continue
		}
		return payload, nil
	}

	if err := s.scanner.Err(); err != nil {
		if s.ctx.Err() != nil {
			return "", s.ctx.Err()
		}
		return "", &glossia.TranscriptionError{Message: "reading transcript stream", Cause: err}
	}
	return "", io.EOF
}

// Close releases the upstream connection. Safe to call multiple times.
func (s *whisperStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// Verify WhisperClient implements Transcriber
var _ Transcriber = (*WhisperClient)(nil)
