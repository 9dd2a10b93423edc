package domain

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobNoText     JobStatus = "no_text"
	JobFailed     JobStatus = "failed"
)

// Job tracks one asynchronous intake. Only headline results are kept; the
// full record goes out on the result subject.
type Job struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	StorageKey  string      `json:"storage_key"`
	Status      JobStatus   `json:"status"`
	Department  string      `json:"department,omitempty"`
	Language    LanguageTag `json:"language,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
