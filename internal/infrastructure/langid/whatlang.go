package langid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

var ErrUnreliable = errors.New("language detection unreliable")

// Identifier wraps whatlanggo trigram detection. Malayalam is decided by
// script alone, which is reliable on any length of text.
type Identifier struct {
	minLetters int
}

func New(minLetters int) *Identifier {
	if minLetters <= 0 {
		minLetters = 12
	}
	return &Identifier{minLetters: minLetters}
}

func (i *Identifier) Identify(text string) (string, error) {
	letters, malayalam := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Malayalam, r) {
			malayalam++
		}
	}
	if letters == 0 {
		return "", errors.New("no letters to detect")
	}
	if malayalam*2 >= letters {
		return "ml", nil
	}
	if letters < i.minLetters {
		return "", fmt.Errorf("%w: %d letters", ErrUnreliable, letters)
	}

	info := whatlanggo.Detect(text)
	code := strings.TrimSpace(info.Lang.Iso6391())
	if code == "" || !info.IsReliable() {
		return "", fmt.Errorf("%w: %s confidence %.2f", ErrUnreliable, info.Lang.String(), info.Confidence)
	}
	return code, nil
}
