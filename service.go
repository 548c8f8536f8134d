package glossia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultWorkers is the worker pool size for blocking translations.
	DefaultWorkers = 4

	// DefaultCallTimeout bounds a single model call.
	DefaultCallTimeout = 120 * time.Second

	// streamBuffer is the increment channel capacity of a Stream.
	streamBuffer = 16
)

// Service is the main translation engine. It chunks input, dispatches
// chunks through the translation program, and reassembles output in
// order, consulting the cache and the language detector when configured.
type Service struct {
	program      *Program
	completer    Completer
	cache        TranslationCache
	detector     LanguageDetector
	converter    Converter
	logger       *zap.SugaredLogger
	budget       int
	workers      int
	retry        RetryConfig
	contextWords int
	callTimeout  time.Duration
}

// TranslationCache is the interface for caching completed chunk
// translations. Get reports whether the key was present.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

// LanguageDetector guesses the language of a text sample. ok is false
// when no supported language can be identified with enough confidence.
type LanguageDetector interface {
	Detect(text string) (lang Language, ok bool)
}

// Converter turns an uploaded document into Markdown plus extracted
// images.
type Converter interface {
	Convert(ctx context.Context, data []byte, format DocumentFormat) (*ConversionResult, error)
}

// ServiceOption is a functional option for configuring the Service.
type ServiceOption func(*Service)

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithDetector sets the source language detector.
func WithDetector(detector LanguageDetector) ServiceOption {
	return func(s *Service) {
		s.detector = detector
	}
}

// WithConverter sets the document converter used by TranslateDocument.
func WithConverter(converter Converter) ServiceOption {
	return func(s *Service) {
		s.converter = converter
	}
}

// WithLogger sets the service logger. The default discards everything.
func WithLogger(logger *zap.SugaredLogger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithChunkBudget sets the chunk size ceiling in runes.
func WithChunkBudget(budget int) ServiceOption {
	return func(s *Service) {
		s.budget = budget
	}
}

// WithWorkers sets the worker pool size for blocking translations.
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		s.workers = n
	}
}

// WithRetryConfig sets the per-chunk retry budget.
func WithRetryConfig(cfg RetryConfig) ServiceOption {
	return func(s *Service) {
		s.retry = cfg
	}
}

// WithContextWords sets how many trailing words of the previous chunk
// are carried into the next chunk's prompt.
func WithContextWords(n int) ServiceOption {
	return func(s *Service) {
		s.contextWords = n
	}
}

// WithCallTimeout bounds each individual model call. 0 disables the
// per-call deadline.
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.callTimeout = d
	}
}

// NewService creates a translation service backed by the given completer.
func NewService(completer Completer, opts ...ServiceOption) *Service {
	s := &Service{
		completer:    completer,
		logger:       zap.NewNop().Sugar(),
		budget:       DefaultChunkBudget,
		workers:      DefaultWorkers,
		retry:        DefaultRetryConfig(),
		contextWords: DefaultContextWords,
		callTimeout:  DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.program = NewProgram(s.completer, s.callTimeout)
	return s
}

// TranslateStream translates text and streams the output in chunk order.
// Chunks are translated sequentially so every fragment can be forwarded
// the moment the model produces it. A chunk that exhausts its retry
// budget yields a failure-marker increment at its position; later chunks
// still translate, and the stream terminates as TerminationFailed citing
// the first such chunk.
//
// Inputs that are empty or a single character after trimming are echoed
// back unchanged.
func (s *Service) TranslateStream(ctx context.Context, text string, cfg TranslationConfig) (*Stream, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = s.resolveSource(text, cfg)

	st := newStream(streamBuffer)
	st.source = cfg.SourceLanguage

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len([]rune(trimmed)) == 1 {
		go func() {
			if text != "" && !st.emit(ctx, Increment{Chunk: 0, Text: text}) {
				st.finish(Termination{Reason: TerminationCanceled, Err: ctx.Err()})
				return
			}
			st.finish(Termination{Reason: TerminationDone})
		}()
		return st, nil
	}

	chunks, err := SplitChunks(text, s.budget)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("streaming translation",
		"chunks", len(chunks),
		"source", cfg.SourceLanguage,
		"target", cfg.TargetLanguage,
	)

	go s.streamChunks(ctx, st, chunks, cfg)
	return st, nil
}

// Translate translates text in blocking mode and returns the assembled
// result together with the resolved source language. Chunks are
// dispatched across the worker pool and reassembled in order. If any
// chunk exhausts its retry budget the whole call fails with a
// TranslationError citing the first unrecoverable chunk.
func (s *Service) Translate(ctx context.Context, text string, cfg TranslationConfig) (string, Language, error) {
	if err := validateConfig(cfg); err != nil {
		return "", "", err
	}
	cfg = s.resolveSource(text, cfg)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len([]rune(trimmed)) == 1 {
		return text, cfg.SourceLanguage, nil
	}

	chunks, err := SplitChunks(text, s.budget)
	if err != nil {
		return "", cfg.SourceLanguage, err
	}

	s.logger.Debugw("blocking translation",
		"chunks", len(chunks),
		"workers", s.workers,
		"source", cfg.SourceLanguage,
		"target", cfg.TargetLanguage,
	)

	results := make([]string, len(chunks))
	failedChunk := -1
	var failCause error

	err = dispatchChunks(ctx, chunks, s.workers,
		func(ctx context.Context, chunk Chunk) (TranslationResult, error) {
			return s.translateChunk(ctx, chunk, cfg, sourceContinuity(chunks, chunk.Index, s.contextWords))
		},
		func(r chunkResult) {
			if r.err != nil {
				if failedChunk < 0 {
					failedChunk = r.index
					failCause = r.err
				}
				return
			}
			results[r.index] = r.res.Text
		},
	)
	if err != nil {
		return "", cfg.SourceLanguage, err
	}
	if failedChunk >= 0 {
		return "", cfg.SourceLanguage, &TranslationError{Chunk: failedChunk, Cause: failCause}
	}

	return strings.Join(results, ""), cfg.SourceLanguage, nil
}

// TranslateDocument converts an uploaded document to Markdown and streams
// its translation. The ConversionResult carries the extracted images and
// the untranslated Markdown for the caller; the Stream carries translated
// Markdown with the image placeholders preserved.
func (s *Service) TranslateDocument(ctx context.Context, data []byte, format DocumentFormat, cfg TranslationConfig) (*ConversionResult, *Stream, error) {
	if s.converter == nil {
		return nil, nil, &ConversionError{Format: format, Message: "no converter configured"}
	}

	conv, err := s.converter.Convert(ctx, data, format)
	if err != nil {
		return nil, nil, err
	}

	st, err := s.TranslateStream(ctx, conv.Markdown, cfg)
	if err != nil {
		return nil, nil, err
	}
	return conv, st, nil
}

// streamChunks drives the sequential streaming loop: cache hits emit in
// one increment, misses stream fragment by fragment, failures mark their
// position and the loop moves on.
func (s *Service) streamChunks(ctx context.Context, st *Stream, chunks []Chunk, cfg TranslationConfig) {
	hits := prefetchCached(ctx, s.cache, chunks, cfg)

	failedChunk := -1
	var failCause error
	var prevOut string

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			st.finish(Termination{Reason: TerminationCanceled, Err: ctx.Err()})
			return
		}

		if cached, ok := hits[chunk.Index]; ok {
			if !st.emit(ctx, Increment{Chunk: chunk.Index, Text: cached}) {
				st.finish(Termination{Reason: TerminationCanceled, Err: ctx.Err()})
				return
			}
			prevOut = cached
			continue
		}

		out, err := s.streamChunk(ctx, st, chunk, cfg, ExtractContext(prevOut, s.contextWords))
		if err != nil {
			if ctx.Err() != nil {
				st.finish(Termination{Reason: TerminationCanceled, Err: ctx.Err()})
				return
			}
			s.logger.Errorw("chunk translation failed",
				"chunk", chunk.Index,
				"error", err,
			)
			if !st.emit(ctx, Increment{Chunk: chunk.Index, Err: err}) {
				st.finish(Termination{Reason: TerminationCanceled, Err: ctx.Err()})
				return
			}
			if failedChunk < 0 {
				failedChunk = chunk.Index
				failCause = err
			}
			continue
		}

		prevOut = out
		if s.cache != nil && out != "" {
			key := TranslationKey(HashText(chunk.Text), cfg)
			_ = s.cache.Set(ctx, key, out) // Ignore cache set errors
		}
	}

	if failedChunk >= 0 {
		st.finish(Termination{
			Reason:      TerminationFailed,
			FailedChunk: failedChunk,
			Err:         &TranslationError{Chunk: failedChunk, Cause: failCause},
		})
		return
	}
	st.finish(Termination{Reason: TerminationDone})
}

// streamChunk streams one chunk's translation into st and returns the
// full text it emitted. The retry budget applies only while nothing has
// been emitted for the chunk; once fragments are on the wire a failure
// cannot be retried without duplicating output.
func (s *Service) streamChunk(ctx context.Context, st *Stream, chunk Chunk, cfg TranslationConfig, continuity string) (string, error) {
	var out strings.Builder
	emitted := false

	for attempt := 0; ; attempt++ {
		err := func() error {
			stream, err := s.program.Stream(ctx, chunk, cfg, continuity)
			if err != nil {
				return err
			}
			defer stream.Close()

			for {
				frag, err := stream.Recv()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if frag == "" {
					continue
				}
				if !st.emit(ctx, Increment{Chunk: chunk.Index, Text: frag}) {
					return ctx.Err()
				}
				emitted = true
				out.WriteString(frag)
			}
		}()

		if err == nil {
			if !emitted && strings.TrimSpace(chunk.Text) != "" {
				err = &ProviderError{Message: "empty completion", Retryable: true}
			} else {
				return out.String(), nil
			}
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if emitted || !IsRetryable(err) || attempt >= s.retry.MaxRetries {
			return "", err
		}

		select {
		case <-time.After(backoffDelay(s.retry, attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// translateChunk translates one chunk in blocking mode, consulting the
// cache first and retrying on transient provider failures.
func (s *Service) translateChunk(ctx context.Context, chunk Chunk, cfg TranslationConfig, continuity string) (TranslationResult, error) {
	var key string
	if s.cache != nil {
		key = TranslationKey(HashText(chunk.Text), cfg)
		if cached, ok := s.cache.Get(ctx, key); ok {
			return TranslationResult{
				Chunk:          chunk.Index,
				Text:           cached,
				SourceLanguage: cfg.SourceLanguage,
				Cached:         true,
			}, nil
		}
	}

	res, err := WithRetry(ctx, s.retry, func() (TranslationResult, error) {
		return s.program.Run(ctx, chunk, cfg, continuity)
	})
	if err != nil {
		return TranslationResult{}, err
	}

	if s.cache != nil && res.Text != "" {
		_ = s.cache.Set(ctx, key, res.Text) // Ignore cache set errors
	}
	return res, nil
}

// resolveSource fills in the source language by detection when the
// request asks for auto. Without a detector, or when detection is not
// confident, the source stays auto and the prompt instructs the model to
// infer it.
func (s *Service) resolveSource(text string, cfg TranslationConfig) TranslationConfig {
	if !cfg.SourceLanguage.IsAuto() {
		return cfg
	}
	cfg.SourceLanguage = LanguageAuto
	if s.detector == nil {
		return cfg
	}
	if lang, ok := s.detector.Detect(text); ok {
		cfg.SourceLanguage = lang
		s.logger.Debugw("detected source language", "language", lang)
	}
	return cfg
}

// sourceContinuity returns the trailing excerpt of the preceding source
// chunk. Blocking mode translates chunks concurrently, so chunk n cannot
// wait for chunk n-1's output; the source-side excerpt keeps some
// cross-boundary context without serializing the pool.
func sourceContinuity(chunks []Chunk, index, words int) string {
	if index == 0 {
		return ""
	}
	return ExtractContext(chunks[index-1].Text, words)
}

func validateConfig(cfg TranslationConfig) error {
	if cfg.TargetLanguage.IsAuto() {
		return fmt.Errorf("target language is required")
	}
	if _, ok := languageNames[cfg.TargetLanguage]; !ok {
		return fmt.Errorf("unsupported target language %q", cfg.TargetLanguage)
	}
	if !cfg.Tone.Valid() {
		return fmt.Errorf("invalid tone %q", cfg.Tone)
	}
	return nil
}
