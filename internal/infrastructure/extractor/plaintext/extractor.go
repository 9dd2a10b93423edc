package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// Reader returns plain UTF-8 text as a single segment.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Segments(_ context.Context, raw []byte) ([]string, error) {
	raw = trimBOM(raw)
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrUnsupported, "read plain text", fmt.Errorf("content is not valid utf-8"))
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

func trimBOM(raw []byte) []byte {
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		return raw[3:]
	}
	return raw
}
