package glossia

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Language is an ISO 639-1 language code, lowercased, with an optional
// lowercased region suffix (e.g., "de", "en-us", "zh-tw").
type Language string

// LanguageAuto requests automatic source language detection.
const LanguageAuto Language = "auto"

const (
	LanguageAfrikaans          Language = "af"
	LanguageArabic             Language = "ar"
	LanguageBulgarian          Language = "bg"
	LanguageBengali            Language = "bn"
	LanguageCatalan            Language = "ca"
	LanguageCzech              Language = "cs"
	LanguageWelsh              Language = "cy"
	LanguageDanish             Language = "da"
	LanguageGerman             Language = "de"
	LanguageGreek              Language = "el"
	LanguageEnglish            Language = "en"
	LanguageEnglishUK          Language = "en-gb"
	LanguageEnglishUS          Language = "en-us"
	LanguageSpanish            Language = "es"
	LanguageEstonian           Language = "et"
	LanguagePersian            Language = "fa"
	LanguageFinnish            Language = "fi"
	LanguageFrench             Language = "fr"
	LanguageGujarati           Language = "gu"
	LanguageHebrew             Language = "he"
	LanguageHindi              Language = "hi"
	LanguageCroatian           Language = "hr"
	LanguageHungarian          Language = "hu"
	LanguageIndonesian         Language = "id"
	LanguageItalian            Language = "it"
	LanguageJapanese           Language = "ja"
	LanguageKannada            Language = "kn"
	LanguageKorean             Language = "ko"
	LanguageLithuanian         Language = "lt"
	LanguageLatvian            Language = "lv"
	LanguageMacedonian         Language = "mk"
	LanguageMalayalam          Language = "ml"
	LanguageMarathi            Language = "mr"
	LanguageNepali             Language = "ne"
	LanguageDutch              Language = "nl"
	LanguageNorwegian          Language = "no"
	LanguagePunjabi            Language = "pa"
	LanguagePolish             Language = "pl"
	LanguagePortuguese         Language = "pt"
	LanguageRomanian           Language = "ro"
	LanguageRussian            Language = "ru"
	LanguageSlovak             Language = "sk"
	LanguageSlovenian          Language = "sl"
	LanguageSomali             Language = "so"
	LanguageAlbanian           Language = "sq"
	LanguageSwedish            Language = "sv"
	LanguageSwahili            Language = "sw"
	LanguageTamil              Language = "ta"
	LanguageTelugu             Language = "te"
	LanguageThai               Language = "th"
	LanguageFilipino           Language = "tl"
	LanguageTurkish            Language = "tr"
	LanguageUkrainian          Language = "uk"
	LanguageUrdu               Language = "ur"
	LanguageVietnamese         Language = "vi"
	LanguageChineseSimplified  Language = "zh-cn"
	LanguageChineseTraditional Language = "zh-tw"
)

// languageNames maps language codes to human-readable names for AI prompts.
var languageNames = map[Language]string{
	LanguageAfrikaans:          "Afrikaans",
	LanguageArabic:             "Arabic",
	LanguageBulgarian:          "Bulgarian",
	LanguageBengali:            "Bengali",
	LanguageCatalan:            "Catalan",
	LanguageCzech:              "Czech",
	LanguageWelsh:              "Welsh",
	LanguageDanish:             "Danish",
	LanguageGerman:             "German",
	LanguageGreek:              "Greek",
	LanguageEnglish:            "English",
	LanguageEnglishUK:          "English (United Kingdom)",
	LanguageEnglishUS:          "English (United States)",
	LanguageSpanish:            "Spanish",
	LanguageEstonian:           "Estonian",
	LanguagePersian:            "Persian",
	LanguageFinnish:            "Finnish",
	LanguageFrench:             "French",
	LanguageGujarati:           "Gujarati",
	LanguageHebrew:             "Hebrew",
	LanguageHindi:              "Hindi",
	LanguageCroatian:           "Croatian",
	LanguageHungarian:          "Hungarian",
	LanguageIndonesian:         "Indonesian",
	LanguageItalian:            "Italian",
	LanguageJapanese:           "Japanese",
	LanguageKannada:            "Kannada",
	LanguageKorean:             "Korean",
	LanguageLithuanian:         "Lithuanian",
	LanguageLatvian:            "Latvian",
	LanguageMacedonian:         "Macedonian",
	LanguageMalayalam:          "Malayalam",
	LanguageMarathi:            "Marathi",
	LanguageNepali:             "Nepali",
	LanguageDutch:              "Dutch",
	LanguageNorwegian:          "Norwegian",
	LanguagePunjabi:            "Punjabi",
	LanguagePolish:             "Polish",
	LanguagePortuguese:         "Portuguese",
	LanguageRomanian:           "Romanian",
	LanguageRussian:            "Russian",
	LanguageSlovak:             "Slovak",
	LanguageSlovenian:          "Slovenian",
	LanguageSomali:             "Somali",
	LanguageAlbanian:           "Albanian",
	LanguageSwedish:            "Swedish",
	LanguageSwahili:            "Swahili",
	LanguageTamil:              "Tamil",
	LanguageTelugu:             "Telugu",
	LanguageThai:               "Thai",
	LanguageFilipino:           "Filipino",
	LanguageTurkish:            "Turkish",
	LanguageUkrainian:          "Ukrainian",
	LanguageUrdu:               "Urdu",
	LanguageVietnamese:         "Vietnamese",
	LanguageChineseSimplified:  "Chinese (Simplified)",
	LanguageChineseTraditional: "Chinese (Traditional)",
}

// languageAliases maps codes that clients commonly send but that are not
// enumerated directly to their closest supported language.
var languageAliases = map[string]Language{
	"zh":  LanguageChineseSimplified,
	"fil": LanguageFilipino,
	"nb":  LanguageNorwegian,
	"nn":  LanguageNorwegian,
}

// rtlLanguages contains base codes that use right-to-left text direction.
var rtlLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
}

// ParseLanguage normalizes and validates a language code. It accepts BCP 47
// spellings in any case ("de", "en_US", "zh-CN"), resolves deprecated codes,
// and falls back to the base language for regional variants that are not
// enumerated ("fr-CA" parses as "fr"). The empty string and "auto" parse as
// LanguageAuto.
func ParseLanguage(code string) (Language, error) {
	c := strings.TrimSpace(code)
	if c == "" || strings.EqualFold(c, string(LanguageAuto)) {
		return LanguageAuto, nil
	}
	c = strings.ReplaceAll(c, "_", "-")

	tag, err := language.Parse(c)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}

	normalized := Language(strings.ToLower(tag.String()))
	if _, ok := languageNames[normalized]; ok {
		return normalized, nil
	}

	// Try the base language for regional variants we do not enumerate.
	base, _ := tag.Base()
	if l := Language(strings.ToLower(base.String())); l != "" {
		if _, ok := languageNames[l]; ok {
			return l, nil
		}
		if alias, ok := languageAliases[string(l)]; ok {
			return alias, nil
		}
	}

	return "", fmt.Errorf("unsupported language %q", code)
}

// Name returns the human-readable name for the language.
// Falls back to the code itself if not found.
func (l Language) Name() string {
	if l == "" || l == LanguageAuto {
		return "auto-detected"
	}
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

// IsAuto reports whether the language requests automatic detection.
func (l Language) IsAuto() bool {
	return l == "" || l == LanguageAuto
}

// IsRTL reports whether the language uses right-to-left text direction.
func (l Language) IsRTL() bool {
	base := strings.SplitN(string(l), "-", 2)[0]
	return rtlLanguages[strings.ToLower(base)]
}

// SupportedLanguages returns every translatable language sorted by code.
// LanguageAuto is not included; it is a detection request, not a target.
func SupportedLanguages() []Language {
	out := make([]Language, 0, len(languageNames))
	for l := range languageNames {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
