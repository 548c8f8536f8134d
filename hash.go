package glossia

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// TranslationKey generates a cache key for a chunk translated under cfg.
// Two requests share a key only when the chunk text, the language pair
// and the prompt-shaping parameters (domain, tone, glossary, context)
// all match.
func TranslationKey(textHash string, cfg TranslationConfig) string {
	return textHash + ":" + string(cfg.SourceLanguage) + ":" + string(cfg.TargetLanguage) + ":" + configFingerprint(cfg)
}

// configFingerprint hashes the prompt-shaping parts of a config into a
// short stable hex string. Glossary entries are folded in sorted order
// so map iteration cannot produce different fingerprints for the same
// glossary.
func configFingerprint(cfg TranslationConfig) string {
	h := sha256.New()
	fmt.Fprintf(h, "domain=%s\n", cfg.Domain)
	fmt.Fprintf(h, "tone=%s\n", cfg.Tone)
	fmt.Fprintf(h, "context=%s\n", cfg.Context)

	terms := make([]string, 0, len(cfg.Glossary))
	for term := range cfg.Glossary {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		fmt.Fprintf(h, "glossary=%s\x00%s\n", term, cfg.Glossary[term])
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
