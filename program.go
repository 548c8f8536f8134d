package glossia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// CompletionRequest is a single prompt sent to the language model.
type CompletionRequest struct {
	System  string        // System message (translator charter)
	User    string        // User message (parameters and chunk text)
	Stream  bool          // Whether fragments should arrive incrementally
	Timeout time.Duration // Per-call deadline, 0 means no deadline
}

// CompletionStream yields completion text fragments. Recv returns io.EOF
// after the final fragment. Blocking callers drain the stream; streaming
// callers forward fragments as they arrive. Close releases the underlying
// connection and is safe to call more than once.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// Completer is the capability boundary to the language model. A request
// with Stream false still returns a CompletionStream; it just carries the
// whole completion in one fragment.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionStream, error)
}

// Program assembles the translation prompt for one chunk, runs it through
// a Completer and normalizes the model output.
type Program struct {
	completer Completer
	timeout   time.Duration
}

// NewProgram creates a translation program. timeout bounds each model
// call; 0 disables the per-call deadline.
func NewProgram(completer Completer, timeout time.Duration) *Program {
	return &Program{completer: completer, timeout: timeout}
}

// Run translates one chunk in blocking mode, draining the completion and
// applying full output cleanup. continuity is the trailing excerpt of the
// preceding chunk's output, empty for the first chunk.
func (p *Program) Run(ctx context.Context, chunk Chunk, cfg TranslationConfig, continuity string) (TranslationResult, error) {
	// Whitespace-only segments carry no translatable content.
	if strings.TrimSpace(chunk.Text) == "" {
		return TranslationResult{Chunk: chunk.Index, Text: chunk.Text, SourceLanguage: cfg.SourceLanguage}, nil
	}

	stream, err := p.completer.Complete(ctx, CompletionRequest{
		System:  buildSystemPrompt(cfg),
		User:    buildUserMessage(chunk.Text, cfg, continuity),
		Timeout: p.timeout,
	})
	if err != nil {
		return TranslationResult{}, err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return TranslationResult{}, err
		}
		sb.WriteString(frag)
	}

	text := CleanTranslation(sb.String(), chunk.Text)
	if text == "" {
		return TranslationResult{}, &ProviderError{Message: "empty completion", Retryable: true}
	}

	return TranslationResult{Chunk: chunk.Index, Text: text, SourceLanguage: cfg.SourceLanguage}, nil
}

// Stream translates one chunk incrementally. Fragments pass through
// NormalizeFragment as they arrive; cleanup that needs the complete
// output does not apply in streaming mode.
func (p *Program) Stream(ctx context.Context, chunk Chunk, cfg TranslationConfig, continuity string) (CompletionStream, error) {
	if strings.TrimSpace(chunk.Text) == "" {
		return &literalStream{text: chunk.Text}, nil
	}

	stream, err := p.completer.Complete(ctx, CompletionRequest{
		System:  buildSystemPrompt(cfg),
		User:    buildUserMessage(chunk.Text, cfg, continuity),
		Stream:  true,
		Timeout: p.timeout,
	})
	if err != nil {
		return nil, err
	}
	return &normalizedStream{inner: stream}, nil
}

// normalizedStream applies per-fragment normalization to an underlying
// completion stream.
type normalizedStream struct {
	inner CompletionStream
}

func (s *normalizedStream) Recv() (string, error) {
	frag, err := s.inner.Recv()
	if err != nil {
		return "", err
	}
	return NormalizeFragment(frag), nil
}

func (s *normalizedStream) Close() error {
	return s.inner.Close()
}

// literalStream yields a fixed text as a single fragment.
type literalStream struct {
	text string
	done bool
}

func (s *literalStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *literalStream) Close() error { return nil }

// buildSystemPrompt renders the translator charter for the target
// language.
func buildSystemPrompt(cfg TranslationConfig) string {
	target := cfg.TargetLanguage.Name()

	return fmt.Sprintf(`# Role
You are an expert translator. You translate text into idiomatic %s with the fluency and nuance of a highly educated native speaker.

# Requirements
- **Accuracy**: Convey exactly the same meaning as the original text.
- **Fluency**: The translation must read naturally in %s, never like a word-for-word rendering.
- **Style**: Maintain the original style and register of the text as much as possible.
- **Proper Nouns**: Do not translate names, brands, places, addresses, URLs, email addresses, phone numbers, or any element that would lose its meaning or function if translated.
- **Idioms**: Adapt idiomatic expressions and cultural references to natural %s equivalents.
- **Source Errors**: Silently correct obvious typos in the source text.
- **Formatting**: Preserve the original Markdown formatting, including line breaks, bullet points, image references, and emphasis.
- **Special Characters**: Preserve line breaks and carriage returns exactly as they appear in the source text.
- **Output**: Provide only the translated text, without explanations, notes, comments, or any additional text.`, target, target, target)
}

// buildUserMessage renders the per-chunk request: language pair, optional
// context and continuity, domain, tone and glossary guidance, then the
// chunk itself.
func buildUserMessage(text string, cfg TranslationConfig, continuity string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Translate the following text from %s to %s.\n", cfg.SourceLanguage.Name(), cfg.TargetLanguage.Name())
	if cfg.SourceLanguage.IsAuto() {
		sb.WriteString("The source language is not specified; infer it from the text itself.\n")
	}
	sb.WriteString("\n")

	if cfg.Context != "" {
		fmt.Fprintf(&sb, "Context: %s\n\n", cfg.Context)
	}
	if continuity != "" {
		fmt.Fprintf(&sb, "The translation so far ends with: %s\nContinue consistently from it.\n\n", continuity)
	}

	fmt.Fprintf(&sb, "Domain-Specific Terminology: %s\n", domainPrompt(cfg.Domain))
	fmt.Fprintf(&sb, "Tone: %s\n", tonePrompt(cfg.Tone, cfg.Domain))
	fmt.Fprintf(&sb, "Glossary: %s\n", glossaryPrompt(cfg.Glossary))

	sb.WriteString("\nText to translate:\n")
	sb.WriteString(text)
	return sb.String()
}

func tonePrompt(tone Tone, domain string) string {
	switch tone {
	case ToneFormal:
		return "Use a formal and professional tone appropriate for official documents."
	case ToneInformal:
		return "Use an informal and conversational tone that is friendly and engaging."
	case ToneTechnical:
		field := domain
		if field == "" {
			field = "professional"
		}
		return fmt.Sprintf("Use a technical tone appropriate for %s writing.", field)
	case "", ToneNeutral:
		return "Use a neutral tone that is objective, informative, and unbiased."
	}
	return "Use a neutral tone."
}

func domainPrompt(domain string) string {
	if domain == "" {
		return "No specific domain requirements."
	}
	return fmt.Sprintf("Use terminology specific to the %s field.", domain)
}

func glossaryPrompt(glossary map[string]string) string {
	if len(glossary) == 0 {
		return "No specific glossary provided."
	}

	terms := make([]string, 0, len(glossary))
	for term := range glossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var sb strings.Builder
	sb.WriteString("Use the following glossary to ensure accurate translations:")
	for _, term := range terms {
		fmt.Fprintf(&sb, "\n- \"%s\" → %s", term, glossary[term])
	}
	return sb.String()
}
