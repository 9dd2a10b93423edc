package domain

import "time"

type SummaryResult struct {
	SummaryEN      string      `json:"summary_en"`
	SummaryTarget  *string     `json:"summary_target"`
	TargetLanguage LanguageTag `json:"target_language"`
}

// LengthBudget bounds the size of one abstractive summary, in words.
type LengthBudget struct {
	MinWords int `json:"min_words"`
	MaxWords int `json:"max_words"`
}

type Vector []float32

type IndexEntryKind string

const (
	EntryDocument IndexEntryKind = "document"
	EntryQuery    IndexEntryKind = "query"
)

// IndexRef describes where embedded texts come from.
type IndexRef struct {
	Kind       IndexEntryKind
	DocumentID string
	Filename   string
}

type IndexEntry struct {
	ID         string         `json:"id"`
	Kind       IndexEntryKind `json:"kind"`
	DocumentID string         `json:"document_id,omitempty"`
	Filename   string         `json:"filename,omitempty"`
	Text       string         `json:"text"`
	Vector     Vector         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
}

type SearchHit struct {
	Entry    IndexEntry `json:"entry"`
	Distance float64    `json:"distance"`
}

const NoTextMessage = "No text could be extracted from this document."

// PipelineRecord is the assembled result of one pipeline run.
type PipelineRecord struct {
	DocumentID       string               `json:"document_id"`
	FileName         string               `json:"file_name"`
	NoText           bool                 `json:"-"`
	DetectedLanguage LanguageTag          `json:"detected_language"`
	ExtractionSource ExtractionSource     `json:"extraction_source"`
	OriginalText     string               `json:"original_text"`
	TranslatedText   string               `json:"translated_text"`
	Classification   ClassificationResult `json:"classification"`
	Metadata         MetadataRecord       `json:"metadata"`
	Embedding        Vector               `json:"embedding_vector"`
	Summary          SummaryResult        `json:"summary"`
	ProcessedAt      time.Time            `json:"processed_at"`
}
