package language

import (
	"errors"
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector guesses the ISO 639-1 code of a text. Building the underlying
// lingua model is expensive; reuse the instance.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector over every language lingua knows.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build(),
	}
}

// DetectISO returns the lower-case ISO 639-1 code of text, or false when the
// text is empty or its language is ambiguous.
func (d *Detector) DetectISO(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(sample(text))
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// minVerifyLength is the rune count below which detection is too unreliable
// to reject a text.
const minVerifyLength = 20

// ErrWrongLanguage is returned by Verify when text is detected as another
// language than expected.
var ErrWrongLanguage = errors.New("text is in an unexpected language")

// Verify checks that text is written in lang. Short texts and texts whose
// language cannot be determined pass.
func (d *Detector) Verify(text, lang string) error {
	if lang == "" {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: text is empty", ErrWrongLanguage)
	}
	if len([]rune(text)) < minVerifyLength {
		return nil
	}
	detected, ok := d.DetectISO(text)
	if !ok {
		return nil
	}
	if !strings.EqualFold(detected, lang) {
		return fmt.Errorf("%w: expected %s, detected %s", ErrWrongLanguage, lang, detected)
	}
	return nil
}

// sample keeps detection cheap on book-length inputs.
func sample(text string) string {
	const maxRunes = 2000
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
