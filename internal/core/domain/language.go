package domain

import "strings"

// LanguageTag is a lower-case ISO 639-1 code, or LanguageUnknown.
type LanguageTag string

const (
	LanguageEnglish   LanguageTag = "en"
	LanguageMalayalam LanguageTag = "ml"
	LanguageUnknown   LanguageTag = "unknown"
)

// ParseLanguageTag accepts two-letter codes only; anything else is unknown.
func ParseLanguageTag(code string) LanguageTag {
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) != 2 || code[0] < 'a' || code[0] > 'z' || code[1] < 'a' || code[1] > 'z' {
		return LanguageUnknown
	}
	return LanguageTag(code)
}

// NeedsTranslation reports whether text in this language is translated
// before the English-only stages. Failed detection never translates.
func (t LanguageTag) NeedsTranslation() bool {
	return t != LanguageEnglish && t != LanguageUnknown && t != ""
}

type TranslationResult struct {
	Text       string      `json:"text"`
	Translated bool        `json:"translated"`
	Source     LanguageTag `json:"source"`
	Target     LanguageTag `json:"target"`
}
