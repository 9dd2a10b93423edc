package domain

import (
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatXLSX    Format = "xlsx"
	FormatText    Format = "text"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// Document is a submitted file. It is never mutated after construction.
type Document struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Format      Format `json:"format"`
	Raw         []byte `json:"-"`
}

func NewDocument(id, filename, contentType string, raw []byte) Document {
	return Document{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Format:      DetectFormat(filename, contentType),
		Raw:         raw,
	}
}

// DetectFormat resolves the declared format from the file extension and,
// when the extension is not conclusive, from the content type.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".xlsx":
		return FormatXLSX
	case ".txt", ".text":
		return FormatText
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp":
		return FormatImage
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return FormatPDF
	case ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX
	case ct == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX
	case ct == "text/plain":
		return FormatText
	case strings.HasPrefix(ct, "image/"):
		return FormatImage
	default:
		return FormatUnknown
	}
}

type ExtractionSource string

const (
	SourceDirect ExtractionSource = "direct"
	SourceOCR    ExtractionSource = "ocr"
	SourceNone   ExtractionSource = "none"
)

type ExtractionResult struct {
	Text    string           `json:"text"`
	Source  ExtractionSource `json:"source"`
	Success bool             `json:"success"`
	Pages   int              `json:"pages"`
	Format  Format           `json:"format"`
}

// NewExtractionResult trims text and derives Success from it, so that
// Success is false exactly when no text survived.
func NewExtractionResult(text string, source ExtractionSource, format Format, pages int) ExtractionResult {
	text = strings.TrimSpace(text)
	if text == "" {
		source = SourceNone
	}
	return ExtractionResult{
		Text:    text,
		Source:  source,
		Success: text != "",
		Pages:   pages,
		Format:  format,
	}
}

func EmptyExtraction(format Format) ExtractionResult {
	return NewExtractionResult("", SourceNone, format, 0)
}
