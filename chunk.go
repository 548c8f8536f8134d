package glossia

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkBudget is the chunk size ceiling in runes. Inputs at or
	// under the budget translate as a single chunk.
	DefaultChunkBudget = 6000

	// DefaultContextWords is the number of trailing words carried from one
	// chunk's translation into the next chunk's prompt for continuity.
	DefaultContextWords = 25
)

// SplitChunks splits text into chunks of at most budget runes. Split
// points are chosen (in order of preference) at:
//  1. Paragraph boundaries (blank lines)
//  2. Sentence-ending punctuation
//  3. The end of an oversized sentence, when it lies within 2x budget
//  4. A hard cut at budget runes
//
// Chunks tile the input exactly: nothing is trimmed or dropped, and
// concatenating the chunk texts in order reproduces text byte for byte.
// A chunk exceeds the budget only in case 3, where cutting mid-sentence
// would cost more quality than an oversized prompt.
//
// budget <= 0 selects DefaultChunkBudget. Empty or whitespace-only
// input returns a ChunkingError.
func SplitChunks(text string, budget int) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ChunkingError{Message: "empty input"}
	}
	if budget <= 0 {
		budget = DefaultChunkBudget
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		n := splitPoint(text[start:], budget)
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  text[start : start+n],
			Start: start,
			End:   start + n,
		})
		start += n
	}
	return chunks, nil
}

// splitPoint returns how many bytes of rest to consume for the next chunk.
// The return value is always in [1, len(rest)].
func splitPoint(rest string, budget int) int {
	runes := []rune(rest)
	if len(runes) <= budget {
		return len(rest)
	}
	window := string(runes[:budget])

	if n := lastParagraphEnd(window); n > 0 {
		return n
	}
	if n := lastSentenceEnd(window); n > 0 {
		return n
	}

	// No boundary inside the window: the current sentence is larger than
	// the budget. Emit it whole if it ends within 2x budget, otherwise
	// hard-cut at the budget.
	if n, ok := firstBoundary(rest, 2*budget); ok {
		return n
	}
	return len(window)
}

// lastParagraphEnd returns the byte length of window up to and including
// the last blank line, or 0 if window contains none.
func lastParagraphEnd(window string) int {
	best := 0
	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		best = idx + 2
	}
	if idx := strings.LastIndex(window, "\r\n\r\n"); idx > 0 && idx+4 > best {
		best = idx + 4
	}
	return best
}

// lastSentenceEnd returns the byte length of window up to and including
// the last sentence terminator and its trailing whitespace, or 0 if
// window contains no sentence boundary.
func lastSentenceEnd(window string) int {
	runes := []rune(window)
	best := 0
	for i := 0; i < len(runes); i++ {
		if n, ok := sentenceBoundaryAt(runes, i); ok {
			best = n
		}
	}
	if best == 0 {
		return 0
	}
	return len(string(runes[:best]))
}

// sentenceBoundaryAt checks for a sentence boundary starting at the
// terminator candidate runes[i]. On a match it returns the rune count
// consumed through the terminator, any closing quotes or brackets, and
// the following whitespace run.
func sentenceBoundaryAt(runes []rune, i int) (int, bool) {
	switch runes[i] {
	case '.', '!', '?':
		j := i + 1
		for j < len(runes) && isClosingMark(runes[j]) {
			j++
		}
		// ASCII terminators need trailing whitespace so we do not split
		// inside "3.14" or "e.g.".
		if j >= len(runes) || !unicode.IsSpace(runes[j]) {
			return 0, false
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		return j, true
	case '。', '！', '？', '…':
		// CJK terminators end a sentence without trailing whitespace.
		j := i + 1
		for j < len(runes) && isClosingMark(runes[j]) {
			j++
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		return j, true
	}
	return 0, false
}

func isClosingMark(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '’', '”', '」', '』':
		return true
	}
	return false
}

// firstBoundary scans rest forward for the nearest natural boundary
// (paragraph or sentence) within maxRunes runes. It returns the byte
// length to consume and whether a boundary was found.
func firstBoundary(rest string, maxRunes int) (int, bool) {
	runes := []rune(rest)
	limit := maxRunes
	if limit > len(runes) {
		limit = len(runes)
	}
	for i := 0; i < limit; i++ {
		if runes[i] == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			if i+2 <= maxRunes {
				return len(string(runes[:i+2])), true
			}
			return 0, false
		}
		if runes[i] == '\r' && i+3 < len(runes) && runes[i+1] == '\n' && runes[i+2] == '\r' && runes[i+3] == '\n' {
			if i+4 <= maxRunes {
				return len(string(runes[:i+4])), true
			}
			return 0, false
		}
		if n, ok := sentenceBoundaryAt(runes, i); ok {
			if n <= maxRunes {
				return len(string(runes[:n])), true
			}
			return 0, false
		}
	}
	return 0, false
}

// ExtractContext returns the last wordCount words of text joined by a
// single space, for use as a continuity snippet in the next chunk's
// prompt. If text has fewer words the whole trimmed text is returned.
// wordCount <= 0 selects DefaultContextWords.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}

// EstimateTokens roughly estimates the model token count of text using
// the common four-characters-per-token heuristic.
func EstimateTokens(text string) int {
	return len(text) / 4
}
