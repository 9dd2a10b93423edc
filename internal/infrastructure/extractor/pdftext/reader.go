package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// Reader extracts the embedded text layer of a PDF, one segment per page.
// Pages without text yield an empty segment so page positions are kept.
type Reader struct {
	maxPages int
}

func NewReader(maxPages int) *Reader {
	return &Reader{maxPages: maxPages}
}

func (r *Reader) Segments(ctx context.Context, raw []byte) (segments []string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			segments = nil
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := doc.NumPage()
	if r.maxPages > 0 && pages > r.maxPages {
		pages = r.maxPages
	}

	segments = make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			segments = append(segments, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("pdf_page_text_failed", "page", i, "error", err)
			segments = append(segments, "")
			continue
		}
		segments = append(segments, text)
	}
	return segments, nil
}
