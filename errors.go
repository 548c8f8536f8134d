package glossia

import "fmt"

// ChunkingError indicates input that cannot be segmented into chunks.
type ChunkingError struct {
	Message string
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunking error: %s", e.Message)
}

// TranslationError indicates a chunk that could not be translated after
// the retry budget was exhausted. Chunk is the index of the first
// unrecoverable chunk.
type TranslationError struct {
	Chunk int
	Cause error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("translating chunk %d: %v", e.Chunk, e.Cause)
	}
	return fmt.Sprintf("translating chunk %d failed", e.Chunk)
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a completion capability failure (API error,
// rate limit, timeout, malformed output, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ConversionError indicates a document conversion failure.
type ConversionError struct {
	Format  DocumentFormat
	Message string
	Cause   error
}

func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conversion error (%s): %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("conversion error (%s): %s", e.Format, e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// TranscriptionError indicates an audio transcription failure.
type TranscriptionError struct {
	Message string
	Cause   error
}

func (e *TranscriptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcription error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transcription error: %s", e.Message)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}
