package provider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ZaguanLabs/glossia"
)

// MockCompleter is a scriptable Completer for testing. It extracts the
// chunk text from the user message, looks it up in Translations, and
// falls back to the bracketed source for unknown texts. Safe for
// concurrent use.
type MockCompleter struct {
	Translations map[string]string // Map of source text to translation
	Fragments    int               // Fragments streamed completions are split into (default 1)
	FailCalls    int               // Initial calls that fail with a retryable error

	mu          sync.Mutex
	callCount   int
	lastRequest *CompletionRequest
}

// NewMockCompleter creates a new mock completer with default translations.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
	}
}

// Complete returns mock completions.
func (m *MockCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionStream, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	fail := m.callCount <= m.FailCalls
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, &glossia.ProviderError{Message: "scripted failure", Retryable: true}
	}

	source := extractSource(req.User)
	translation, ok := m.Translations[source]
	if !ok {
		// Return bracketed text for unknown translations
		translation = fmt.Sprintf("[%s]", source)
	}

	fragments := 1
	if req.Stream && m.Fragments > 1 {
		fragments = m.Fragments
	}
	return &mockStream{parts: splitFragments(translation, fragments)}, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the last request received.
func (m *MockCompleter) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// extractSource pulls the chunk text out of an assembled user message.
func extractSource(user string) string {
	const marker = "Text to translate:\n"
	if i := strings.LastIndex(user, marker); i >= 0 {
		return user[i+len(marker):]
	}
	return user
}

// splitFragments cuts text into n roughly equal rune slices.
func splitFragments(text string, n int) []string {
	if n <= 1 {
		return []string{text}
	}
	runes := []rune(text)
	if n > len(runes) {
		n = len(runes)
	}
	if n <= 1 {
		return []string{text}
	}

	parts := make([]string, 0, n)
	size := (len(runes) + n - 1) / n
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

type mockStream struct {
	parts []string
	pos   int
}

func (s *mockStream) Recv() (string, error) {
	if s.pos >= len(s.parts) {
		return "", io.EOF
	}
	part := s.parts[s.pos]
	s.pos++
	return part, nil
}

func (s *mockStream) Close() error { return nil }

// Verify MockCompleter implements Completer
var _ Completer = (*MockCompleter)(nil)
