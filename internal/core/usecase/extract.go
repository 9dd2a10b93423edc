package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const defaultOCRWorkers = 4

type ExtractTextUseCase struct {
	readers    map[domain.Format]ports.SegmentReader
	rasterizer ports.PageRasterizer
	recognizer ports.TextRecognizer
	observer   ports.StageObserver
	maxWorkers int
}

type ExtractOptions struct {
	Readers    map[domain.Format]ports.SegmentReader
	Rasterizer ports.PageRasterizer
	Recognizer ports.TextRecognizer
	Observer   ports.StageObserver
	MaxWorkers int
}

func NewExtractTextUseCase(opts ExtractOptions) *ExtractTextUseCase {
	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = defaultOCRWorkers
	}
	readers := opts.Readers
	if readers == nil {
		readers = map[domain.Format]ports.SegmentReader{}
	}
	return &ExtractTextUseCase{
		readers:    readers,
		rasterizer: opts.Rasterizer,
		recognizer: opts.Recognizer,
		observer:   opts.Observer,
		maxWorkers: workers,
	}
}

// Extract never fails: every error is logged and collapses into an empty
// result.
func (uc *ExtractTextUseCase) Extract(ctx context.Context, doc domain.Document) domain.ExtractionResult {
	if len(doc.Raw) == 0 {
		return domain.EmptyExtraction(doc.Format)
	}

	switch doc.Format {
	case domain.FormatPDF:
		direct := uc.direct(ctx, doc)
		if direct.Success {
			return direct
		}
		slog.Info("pdf_text_layer_empty", "document_id", doc.ID, "fallback", "ocr")
		return uc.ocrPages(ctx, doc)
	case domain.FormatDOCX, domain.FormatXLSX, domain.FormatText:
		return uc.direct(ctx, doc)
	default:
		return uc.ocrImage(ctx, doc)
	}
}

func (uc *ExtractTextUseCase) direct(ctx context.Context, doc domain.Document) domain.ExtractionResult {
	reader, ok := uc.readers[doc.Format]
	if !ok {
		slog.Warn("extract_reader_missing", "document_id", doc.ID, "format", doc.Format)
		return domain.EmptyExtraction(doc.Format)
	}

	segments, err := reader.Segments(ctx, doc.Raw)
	if err != nil {
		slog.Warn("extract_direct_failed", "document_id", doc.ID, "format", doc.Format, "error", err)
		return domain.EmptyExtraction(doc.Format)
	}
	return domain.NewExtractionResult(strings.Join(segments, "\n"), domain.SourceDirect, doc.Format, len(segments))
}

func (uc *ExtractTextUseCase) ocrImage(ctx context.Context, doc domain.Document) domain.ExtractionResult {
	if uc.recognizer == nil {
		return domain.EmptyExtraction(doc.Format)
	}
	text, err := uc.recognizer.Recognize(ctx, doc.Raw)
	if err != nil {
		uc.observePage("error")
		slog.Warn("ocr_image_failed", "document_id", doc.ID, "error", err)
		return domain.EmptyExtraction(doc.Format)
	}
	uc.observePage("ok")
	return domain.NewExtractionResult(text, domain.SourceOCR, doc.Format, 1)
}

// ocrPages renders and recognizes every page in a bounded pool. Each worker
// writes into its own slot, so page order survives any completion order.
func (uc *ExtractTextUseCase) ocrPages(ctx context.Context, doc domain.Document) domain.ExtractionResult {
	if uc.rasterizer == nil || uc.recognizer == nil {
		return domain.EmptyExtraction(doc.Format)
	}

	pages, err := uc.rasterizer.PageCount(ctx, doc.Raw)
	if err != nil {
		slog.Warn("ocr_page_count_failed", "document_id", doc.ID, "error", err)
		return domain.EmptyExtraction(doc.Format)
	}
	if pages <= 0 {
		return domain.EmptyExtraction(doc.Format)
	}

	texts := make([]string, pages)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(min(uc.maxWorkers, pages))
	for i := 0; i < pages; i++ {
		page := i + 1
		group.Go(func() error {
			text, err := uc.recognizePage(groupCtx, doc.Raw, page)
			if err != nil {
				uc.observePage("error")
				slog.Warn("ocr_page_failed", "document_id", doc.ID, "page", page, "error", err)
				return nil
			}
			uc.observePage("ok")
			texts[page-1] = text
			return nil
		})
	}
	_ = group.Wait()

	return domain.NewExtractionResult(strings.Join(texts, "\n"), domain.SourceOCR, doc.Format, pages)
}

func (uc *ExtractTextUseCase) recognizePage(ctx context.Context, raw []byte, page int) (string, error) {
	image, err := uc.rasterizer.RenderPage(ctx, raw, page)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", page, err)
	}
	text, err := uc.recognizer.Recognize(ctx, image)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", page, err)
	}
	return strings.TrimSpace(text), nil
}

func (uc *ExtractTextUseCase) observePage(status string) {
	if uc.observer != nil {
		uc.observer.ObserveOCRPage(status)
	}
}
