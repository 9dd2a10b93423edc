package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// SegmentReader reads the direct text layer of one format. It returns the
// ordered segments (pages, paragraphs, rows); empty segments are allowed.
type SegmentReader interface {
	Segments(ctx context.Context, raw []byte) ([]string, error)
}

// PageRasterizer renders pages of a multi-page source to images.
type PageRasterizer interface {
	PageCount(ctx context.Context, raw []byte) (int, error)
	RenderPage(ctx context.Context, raw []byte, page int) ([]byte, error)
}

// TextRecognizer runs OCR over one raster image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// LanguageIdentifier returns an ISO 639-1 code for text.
type LanguageIdentifier interface {
	Identify(text string) (string, error)
}

// TranslationService translates text between languages. Source may be
// empty for auto-detection.
type TranslationService interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ZeroShotClassifier scores text against arbitrary candidate labels.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (domain.LabelScores, error)
}

// EntityRecognizer tags named entities in text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}

// TextSummarizer produces an abstractive summary within a length budget.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string, budget domain.LengthBudget) (string, error)
}

// EmbeddingModel builds vectors for texts, one per input, same order.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits text into fixed-size pieces.
type Chunker interface {
	Split(text string) []string
}

// SimilarityIndex is the append-only, process-wide vector index.
// Implementations serialize appends and allow concurrent searches.
type SimilarityIndex interface {
	Append(ctx context.Context, entries []domain.IndexEntry) error
	Search(ctx context.Context, vector domain.Vector, limit int, kind domain.IndexEntryKind) ([]domain.SearchHit, error)
	Len(ctx context.Context) (int, error)
}

// JobRepository persists async intake job state.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, status domain.JobStatus, department string, language domain.LanguageTag) error
}

// ObjectStorage stores uploaded sources for the async path.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobQueue publishes and consumes job IDs.
type JobQueue interface {
	PublishJob(ctx context.Context, jobID string) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, string) error) error
}

// RecordPublisher broadcasts finished pipeline records.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, record *domain.PipelineRecord) error
}

// StageObserver receives per-stage timings and outcomes.
type StageObserver interface {
	ObserveStage(stage string, status string, seconds float64)
	ObserveOCRPage(status string)
	ObserveTranslationFallback(direction string)
	ObserveIndexSize(size int)
}
