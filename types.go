package glossia

// Tone controls the register and formality of translated output.
type Tone string

const (
	// ToneNeutral produces objective, informative, unbiased output.
	ToneNeutral Tone = "neutral"
	// ToneFormal produces formal, professional output for official documents.
	ToneFormal Tone = "formal"
	// ToneInformal produces conversational, friendly output.
	ToneInformal Tone = "informal"
	// ToneTechnical produces precise output using field-specific terminology.
	ToneTechnical Tone = "technical"
)

// Valid reports whether t is one of the defined tones.
// The empty string is valid and treated as ToneNeutral.
func (t Tone) Valid() bool {
	switch t {
	case "", ToneNeutral, ToneFormal, ToneInformal, ToneTechnical:
		return true
	}
	return false
}

// TranslationConfig holds the per-request translation parameters.
type TranslationConfig struct {
	TargetLanguage Language          // Target language code (required)
	SourceLanguage Language          // Source language code (default: LanguageAuto)
	Domain         string            // Subject domain (e.g., "legal", "medical")
	Tone           Tone              // Output register (default: neutral)
	Glossary       map[string]string // Preferred translations for specific terms
	Context        string            // Free-form context about the text
}

// Chunk is a contiguous segment of the source text. Chunks tile the
// input exactly: Start/End are byte offsets into the original string,
// chunk i ends where chunk i+1 begins, and concatenating the Text of
// all chunks in Index order reproduces the input byte for byte.
type Chunk struct {
	Index int    // Position in the chunk sequence, starting at 0
	Text  string // Segment content, never empty, never trimmed
	Start int    // Byte offset of the first byte in the source text
	End   int    // Byte offset one past the last byte
}

// TranslationResult is the translated output for a single chunk.
type TranslationResult struct {
	Chunk          int      // Index of the source chunk
	Text           string   // Translated text
	SourceLanguage Language // Resolved source language for the request
	Cached         bool     // Whether the text came from the cache
}

// DocumentFormat identifies the format of an uploaded document.
type DocumentFormat string

const (
	// FormatPDF is a PDF document, converted by the remote engine.
	FormatPDF DocumentFormat = "pdf"
	// FormatDOCX is a Word document, converted by the remote engine.
	FormatDOCX DocumentFormat = "docx"
	// FormatHTML is an HTML document, converted locally.
	FormatHTML DocumentFormat = "html"
	// FormatMarkdown is Markdown, passed through unchanged.
	FormatMarkdown DocumentFormat = "md"
)

// ImageBlob is an image extracted from a converted document.
type ImageBlob struct {
	Index    int    // Placeholder number referenced from the Markdown
	Data     []byte // Decoded image bytes
	Encoding string // Image encoding (e.g., "png")
	Anchor   int    // Byte offset of the placeholder in the Markdown, -1 if absent
}

// ConversionResult is the normalized output of a document conversion.
// Markdown contains numbered image placeholders of the form
// ![...](./imgN.png) where N matches an ImageBlob Index.
type ConversionResult struct {
	Markdown string
	Images   []ImageBlob
}
