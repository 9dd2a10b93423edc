package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// DocumentProcessor is the inbound contract for synchronous processing.
type DocumentProcessor interface {
	Process(ctx context.Context, doc domain.Document) (*domain.PipelineRecord, error)
	ProcessText(ctx context.Context, filename, text string) (*domain.PipelineRecord, error)
}

// SimilarityService embeds queries and searches the index.
type SimilarityService interface {
	EmbedQuery(ctx context.Context, query string) (domain.Vector, error)
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// JobSubmitter is the inbound contract for async intake.
type JobSubmitter interface {
	Submit(ctx context.Context, filename, contentType string, body io.Reader) (*domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
}

// JobProcessor runs queued jobs.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}
