package detect

import (
	"strings"
	"testing"

	"github.com/ZaguanLabs/glossia"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		lang glossia.Language
		ok   bool
	}{
		{
			name: "english maps to en-us",
			text: "The quick brown fox jumps over the lazy dog and then runs far away across the quiet green hills.",
			lang: glossia.LanguageEnglishUS,
			ok:   true,
		},
		{
			name: "german",
			text: "Der schnelle braune Fuchs springt über den faulen Hund und läuft dann weit über die grünen Hügel davon.",
			lang: glossia.LanguageGerman,
			ok:   true,
		},
		{
			name: "spanish",
			text: "El zorro marrón salta rápidamente sobre el perro perezoso en el jardín de la casa.",
			lang: glossia.LanguageSpanish,
			ok:   true,
		},
		{
			name: "japanese",
			text: "素早い茶色の狐はのんびりした犬を飛び越えて、静かな丘を走り抜けていきました。",
			lang: glossia.LanguageJapanese,
			ok:   true,
		},
		{
			name: "chinese maps to simplified",
			text: "我们明天一起去公园散步，顺便买一些新鲜的水果和蔬菜。",
			lang: glossia.LanguageChineseSimplified,
			ok:   true,
		},
		{
			name: "empty",
			text: "",
			lang: glossia.LanguageAuto,
			ok:   false,
		},
		{
			name: "whitespace only",
			text: "   \n\t  ",
			lang: glossia.LanguageAuto,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v (lang %q)", tt.ok, ok, lang)
			}
			if lang != tt.lang {
				t.Errorf("Expected %q, got %q", tt.lang, lang)
			}
		})
	}
}

func TestDetector_SamplesLongInput(t *testing.T) {
	d := New()

	sentence := "The committee reviewed the proposal carefully before reaching a unanimous decision on the budget. "
	text := strings.Repeat(sentence, 40)

	lang, ok := d.Detect(text)
	if !ok {
		t.Fatal("Expected detection to succeed on long input")
	}
	if lang != glossia.LanguageEnglishUS {
		t.Errorf("Expected 'en-us', got %q", lang)
	}
}
