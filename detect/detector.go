// Package detect identifies the language of source text using the
// lingua-go statistical detector.
package detect

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/ZaguanLabs/glossia"
)

// detectionSample caps how many runes of the input feed the detector.
// Accuracy plateaus well before this; cost does not.
const detectionSample = 1000

// minConfidence is the floor below which a detection is discarded as
// noise.
const minConfidence = 0.1

// Detector detects the language of text. The underlying lingua models
// are expensive to build; reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

// New creates a Detector covering all languages lingua ships models
// for. Results outside the supported language set are reported as not
// detected.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

// Detect implements glossia.LanguageDetector. English resolves to
// American English and Chinese to Simplified, matching how those
// macro-languages are keyed in the supported set.
func (d *Detector) Detect(text string) (glossia.Language, bool) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return glossia.LanguageAuto, false
	}
	if runes := []rune(sample); len(runes) > detectionSample {
		sample = string(runes[:detectionSample])
	}

	detected, ok := d.detector.DetectLanguageOf(sample)
	if !ok {
		return glossia.LanguageAuto, false
	}
	if d.detector.ComputeLanguageConfidence(sample, detected) <= minConfidence {
		return glossia.LanguageAuto, false
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	switch code {
	case "en":
		return glossia.LanguageEnglishUS, true
	case "zh":
		return glossia.LanguageChineseSimplified, true
	}

	lang, err := glossia.ParseLanguage(code)
	if err != nil {
		return glossia.LanguageAuto, false
	}
	return lang, true
}

// Verify Detector implements LanguageDetector
var _ glossia.LanguageDetector = (*Detector)(nil)
