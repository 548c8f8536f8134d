package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/glossia"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter implements Completer against any OpenAI-compatible
// chat completion endpoint (OpenAI, vLLM, Ollama, LM Studio).
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI completer.
type OpenAIConfig struct {
	APIKey      string  // API key (uses OPENAI_API_KEY env var if empty)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL for self-hosted endpoints (optional)
}

// NewOpenAICompleter creates a new OpenAI-compatible completer.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Complete implements Completer. In streaming mode the returned stream
// owns the per-call deadline; Close releases it.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionStream, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}

	apiReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: c.temperature,
	}

	if req.Stream {
		stream, err := c.client.CreateChatCompletionStream(callCtx, apiReq)
		if err != nil {
			perr := classifyError(ctx, callCtx, err)
			if cancel != nil {
				cancel()
			}
			return nil, perr
		}
		return &openaiStream{stream: stream, parent: ctx, call: callCtx, cancel: cancel}, nil
	}

	resp, err := c.client.CreateChatCompletion(callCtx, apiReq)
	if err != nil {
		perr := classifyError(ctx, callCtx, err)
		if cancel != nil {
			cancel()
		}
		return nil, perr
	}
	if cancel != nil {
		cancel()
	}

	if len(resp.Choices) == 0 {
		return nil, &glossia.ProviderError{Message: "no choices in completion", Retryable: true}
	}
	return &singleStream{text: resp.Choices[0].Message.Content}, nil
}

// openaiStream adapts the go-openai delta stream to CompletionStream.
// Empty deltas (role-only frames) are skipped.
type openaiStream struct {
	stream *openai.ChatCompletionStream
	parent context.Context
	call   context.Context
	cancel context.CancelFunc
	closed bool
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", classifyError(s.parent, s.call, err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *openaiStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.stream.Close()
	if s.cancel != nil {
		s.cancel()
	}
	return err
}

// singleStream carries a blocking completion as one fragment.
type singleStream struct {
	text string
	done bool
}

func (s *singleStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *singleStream) Close() error { return nil }

// classifyError maps a transport error into the package error taxonomy.
// Parent-context cancellation passes through untouched so callers can
// always tell a canceled request from a retryable per-call timeout.
func classifyError(parent, call context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if call.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return &glossia.ProviderError{Message: "model call timed out", Cause: err, Retryable: true}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &glossia.ProviderError{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: retryableStatus(apiErr.HTTPStatusCode),
		}
	}

	return &glossia.ProviderError{
		Message:   "chat completion failed",
		Cause:     err,
		Retryable: isRetryableError(err),
	}
}

// retryableStatus reports whether an HTTP status from the model endpoint
// is worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := err.Error()
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAICompleter implements Completer
var _ Completer = (*OpenAICompleter)(nil)
