package glossia

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestBuildSystemPrompt(t *testing.T) {
	cfg := TranslationConfig{TargetLanguage: LanguageGerman}

	prompt := buildSystemPrompt(cfg)

	if !strings.HasPrefix(prompt, "# Role") {
		t.Error("system prompt should start with the role section")
	}
	if !strings.Contains(prompt, "idiomatic German") {
		t.Error("system prompt should name the target language")
	}
	if !strings.Contains(prompt, "Provide only the translated text") {
		t.Error("system prompt should forbid extra output")
	}
	if strings.Count(prompt, "German") != 3 {
		t.Errorf("Expected the target name 3 times, got %d", strings.Count(prompt, "German"))
	}
}

func TestBuildUserMessage(t *testing.T) {
	cfg := TranslationConfig{
		SourceLanguage: LanguageEnglish,
		TargetLanguage: LanguageGerman,
	}

	msg := buildUserMessage("Hello World", cfg, "")

	if !strings.Contains(msg, "Translate the following text from English to German.\n") {
		t.Errorf("missing language pair line:\n%s", msg)
	}
	if strings.Contains(msg, "infer it from the text") {
		t.Error("explicit source should not carry the inference instruction")
	}
	if !strings.Contains(msg, "Domain-Specific Terminology: No specific domain requirements.\n") {
		t.Errorf("missing default domain line:\n%s", msg)
	}
	if !strings.Contains(msg, "Tone: Use a neutral tone that is objective, informative, and unbiased.\n") {
		t.Errorf("missing default tone line:\n%s", msg)
	}
	if !strings.Contains(msg, "Glossary: No specific glossary provided.\n") {
		t.Errorf("missing default glossary line:\n%s", msg)
	}
	if !strings.HasSuffix(msg, "\nText to translate:\nHello World") {
		t.Errorf("message should end with the chunk text:\n%s", msg)
	}
}

func TestBuildUserMessage_AutoSource(t *testing.T) {
	cfg := TranslationConfig{
		SourceLanguage: LanguageAuto,
		TargetLanguage: LanguageFrench,
	}

	msg := buildUserMessage("Hello", cfg, "")

	if !strings.Contains(msg, "from auto-detected to French.") {
		t.Errorf("missing language pair line:\n%s", msg)
	}
	if !strings.Contains(msg, "The source language is not specified; infer it from the text itself.\n") {
		t.Errorf("missing inference instruction:\n%s", msg)
	}
}

func TestBuildUserMessage_ContextAndContinuity(t *testing.T) {
	cfg := TranslationConfig{
		SourceLanguage: LanguageEnglish,
		TargetLanguage: LanguageGerman,
		Context:        "a mountaineering blog",
	}

	msg := buildUserMessage("The summit.", cfg, "wir erreichten das Lager")

	if !strings.Contains(msg, "Context: a mountaineering blog\n") {
		t.Errorf("missing context line:\n%s", msg)
	}
	if !strings.Contains(msg, "The translation so far ends with: wir erreichten das Lager\nContinue consistently from it.\n") {
		t.Errorf("missing continuity section:\n%s", msg)
	}
}

func TestBuildUserMessage_Glossary(t *testing.T) {
	cfg := TranslationConfig{
		SourceLanguage: LanguageEnglish,
		TargetLanguage: LanguageGerman,
		Glossary: map[string]string{
			"fox": "Fuchs",
			"dog": "Hund",
		},
	}

	msg := buildUserMessage("The fox and the dog.", cfg, "")

	// Entries render in sorted term order
	dogLine := `- "dog" → Hund`
	foxLine := `- "fox" → Fuchs`
	di := strings.Index(msg, dogLine)
	fi := strings.Index(msg, foxLine)
	if di < 0 || fi < 0 {
		t.Fatalf("missing glossary entries:\n%s", msg)
	}
	if di > fi {
		t.Error("glossary entries should be sorted by term")
	}
}

func TestTonePrompt(t *testing.T) {
	tests := []struct {
		tone     Tone
		domain   string
		contains string
	}{
		{ToneFormal, "", "formal and professional"},
		{ToneInformal, "", "informal and conversational"},
		{ToneTechnical, "medicine", "appropriate for medicine writing"},
		{ToneTechnical, "", "appropriate for professional writing"},
		{ToneNeutral, "", "neutral tone"},
		{Tone(""), "", "neutral tone"},
	}

	for _, tt := range tests {
		t.Run(string(tt.tone)+"/"+tt.domain, func(t *testing.T) {
			result := tonePrompt(tt.tone, tt.domain)
			if !strings.Contains(result, tt.contains) {
				t.Errorf("tonePrompt(%q, %q) = %q, want substring %q", tt.tone, tt.domain, result, tt.contains)
			}
		})
	}
}

func TestProgramRun(t *testing.T) {
	completer := &scriptedCompleter{fragments: []string{"Hola ", "Mundo"}}
	p := NewProgram(completer, 30*time.Second)

	cfg := TranslationConfig{SourceLanguage: LanguageEnglish, TargetLanguage: LanguageSpanish}
	chunk := Chunk{Index: 2, Text: "Hello World"}

	res, err := p.Run(context.Background(), chunk, cfg, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if res.Text != "Hola Mundo" {
		t.Errorf("Expected 'Hola Mundo', got %q", res.Text)
	}
	if res.Chunk != 2 {
		t.Errorf("Expected chunk 2, got %d", res.Chunk)
	}
	if res.SourceLanguage != LanguageEnglish {
		t.Errorf("Expected source 'en', got %q", res.SourceLanguage)
	}

	if len(completer.requests) != 1 {
		t.Fatalf("Expected 1 completion call, got %d", len(completer.requests))
	}
	req := completer.requests[0]
	if req.Stream {
		t.Error("blocking run should not request a streamed completion")
	}
	if req.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", req.Timeout)
	}
	if !strings.Contains(req.User, "Hello World") {
		t.Error("user message should carry the chunk text")
	}
	if !strings.Contains(req.System, "Spanish") {
		t.Error("system prompt should name the target language")
	}
}

func TestProgramRun_WhitespaceChunk(t *testing.T) {
	completer := &scriptedCompleter{fragments: []string{"should not be used"}}
	p := NewProgram(completer, 0)

	chunk := Chunk{Index: 1, Text: "\n\n"}
	res, err := p.Run(context.Background(), chunk, TranslationConfig{TargetLanguage: LanguageSpanish}, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Whitespace passes through untouched without a model call
	if res.Text != "\n\n" {
		t.Errorf("Expected whitespace echo, got %q", res.Text)
	}
	if len(completer.requests) != 0 {
		t.Errorf("Expected no completion calls, got %d", len(completer.requests))
	}
}

func TestProgramRun_CleansOutput(t *testing.T) {
	completer := &scriptedCompleter{fragments: []string{"<translation_text>Hola</translation_text>"}}
	p := NewProgram(completer, 0)

	res, err := p.Run(context.Background(), Chunk{Text: "Hello"}, TranslationConfig{TargetLanguage: LanguageSpanish}, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if res.Text != "Hola" {
		t.Errorf("Expected unwrapped 'Hola', got %q", res.Text)
	}
}

func TestProgramRun_EmptyCompletion(t *testing.T) {
	completer := &scriptedCompleter{fragments: []string{"  "}}
	p := NewProgram(completer, 0)

	_, err := p.Run(context.Background(), Chunk{Text: "Hello"}, TranslationConfig{TargetLanguage: LanguageSpanish}, "")
	if err == nil {
		t.Fatal("Expected error for empty completion")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if !pe.Retryable {
		t.Error("empty completion should be retryable")
	}
}

func TestProgramRun_CompleterError(t *testing.T) {
	wantErr := &ProviderError{Message: "boom"}
	completer := &scriptedCompleter{completeErr: wantErr}
	p := NewProgram(completer, 0)

	_, err := p.Run(context.Background(), Chunk{Text: "Hello"}, TranslationConfig{TargetLanguage: LanguageSpanish}, "")
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected the completer error, got: %v", err)
	}
}

func TestProgramRun_MidStreamError(t *testing.T) {
	wantErr := &ProviderError{Message: "connection reset", Retryable: true}
	completer := &scriptedCompleter{fragments: []string{"Hola "}, recvErr: wantErr}
	p := NewProgram(completer, 0)

	_, err := p.Run(context.Background(), Chunk{Text: "Hello"}, TranslationConfig{TargetLanguage: LanguageSpanish}, "")
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected the stream error, got: %v", err)
	}
}

func TestProgramStream(t *testing.T) {
	completer := &scriptedCompleter{fragments: []string{"Viele ", "Grü", "ße"}}
	p := NewProgram(completer, 0)

	cfg := TranslationConfig{TargetLanguage: LanguageGerman}
	stream, err := p.Stream(context.Background(), Chunk{Text: "Best regards"}, cfg, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		got = append(got, frag)
	}

	// Fragments are normalized one by one
	want := []string{"Viele ", "Grü", "sse"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d fragments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fragment %d = %q, want %q", i, got[i], want[i])
		}
	}

	if len(completer.requests) != 1 || !completer.requests[0].Stream {
		t.Error("streaming run should request a streamed completion")
	}
}

func TestProgramStream_WhitespaceChunk(t *testing.T) {
	completer := &scriptedCompleter{}
	p := NewProgram(completer, 0)

	stream, err := p.Stream(context.Background(), Chunk{Text: "  \n"}, TranslationConfig{TargetLanguage: LanguageGerman}, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	frag, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if frag != "  \n" {
		t.Errorf("Expected whitespace echo, got %q", frag)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF, got: %v", err)
	}
	if len(completer.requests) != 0 {
		t.Error("whitespace chunk should not hit the completer")
	}
}

// scriptedCompleter yields a fixed fragment sequence and records requests.
type scriptedCompleter struct {
	fragments   []string
	recvErr     error // returned after the fragments instead of io.EOF
	completeErr error
	requests    []CompletionRequest
}

func (c *scriptedCompleter) Complete(ctx context.Context, req CompletionRequest) (CompletionStream, error) {
	c.requests = append(c.requests, req)
	if c.completeErr != nil {
		return nil, c.completeErr
	}
	return &scriptedStream{parts: c.fragments, err: c.recvErr}, nil
}

type scriptedStream struct {
	parts []string
	pos   int
	err   error
}

func (s *scriptedStream) Recv() (string, error) {
	if s.pos >= len(s.parts) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	part := s.parts[s.pos]
	s.pos++
	return part, nil
}

func (s *scriptedStream) Close() error { return nil }
