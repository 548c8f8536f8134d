package glossia

import (
	"regexp"
	"strings"
)

const (
	translationOpenTag  = "<translation_text>"
	translationCloseTag = "</translation_text>"
)

// thinkingBlockRe matches complete <thinking>...</thinking> style blocks.
// Each tag variant is listed explicitly because RE2 has no backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag
// never arrived (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

// echoPatterns match introductory phrases models sometimes prepend even
// when instructed not to. Anchored to the start and requiring a colon to
// avoid false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)\s*:`),
}

// NormalizeFragment applies the per-fragment normalization that is safe
// during streaming: Swiss orthography, where "ß" is always written "ss".
// Cleanup that needs the whole completion happens in CleanTranslation.
func NormalizeFragment(text string) string {
	return strings.ReplaceAll(text, "ß", "ss")
}

// CleanTranslation normalizes a complete model completion into the final
// translated text for one chunk. It removes thinking blocks, applies
// NormalizeFragment, unwraps a <translation_text> envelope if the model
// emitted one, and strips instruction echoes. sourceText is the chunk
// that produced the completion; a trailing carriage return in the source
// survives into the output so line-oriented documents reassemble intact.
func CleanTranslation(raw, sourceText string) string {
	text := thinkingBlockRe.ReplaceAllString(raw, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(NormalizeFragment(text))

	if start := strings.Index(text, translationOpenTag); start >= 0 {
		if end := strings.Index(text, translationCloseTag); end > start {
			text = strings.TrimSpace(text[start+len(translationOpenTag) : end])
		}
	}

	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}

	if strings.HasSuffix(sourceText, "\r") && !strings.HasSuffix(text, "\r") {
		text += "\r"
	}
	return text
}
