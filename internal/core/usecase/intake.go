package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const markFailedTimeout = 5 * time.Second

type IntakeUseCase struct {
	jobs      ports.JobRepository
	storage   ports.ObjectStorage
	queue     ports.JobQueue
	pipeline  ports.DocumentProcessor
	publisher ports.RecordPublisher
	onPickup  func(lag time.Duration)
}

func NewIntakeUseCase(
	jobs ports.JobRepository,
	storage ports.ObjectStorage,
	queue ports.JobQueue,
	pipeline ports.DocumentProcessor,
	publisher ports.RecordPublisher,
) *IntakeUseCase {
	return &IntakeUseCase{
		jobs:      jobs,
		storage:   storage,
		queue:     queue,
		pipeline:  pipeline,
		publisher: publisher,
	}
}

// WithPickupObserver reports how long each job waited between upload and
// the start of processing.
func (uc *IntakeUseCase) WithPickupObserver(fn func(lag time.Duration)) *IntakeUseCase {
	uc.onPickup = fn
	return uc
}

// Submit stores the upload, records a queued job and publishes its ID.
func (uc *IntakeUseCase) Submit(
	ctx context.Context,
	filename, contentType string,
	body io.Reader,
) (*domain.Job, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit job", errors.New("filename is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	job := &domain.Job{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		StorageKey:  storageKey,
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := uc.queue.PublishJob(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish job: %w", err)
	}
	return job, nil
}

func (uc *IntakeUseCase) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get job", errors.New("id is required"))
	}
	job, err := uc.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ProcessJob runs the pipeline for a queued job and records the outcome.
// A failed job is marked failed before the error is returned.
func (uc *IntakeUseCase) ProcessJob(ctx context.Context, jobID string) error {
	if err := uc.jobs.UpdateStatus(ctx, jobID, domain.JobProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	record, err := uc.runJob(ctx, jobID)
	if err != nil {
		// The job context may already be expired; the failure must still land.
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markFailedTimeout)
		defer cancel()
		if failErr := uc.jobs.UpdateStatus(failCtx, jobID, domain.JobFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	status := domain.JobCompleted
	if record.NoText {
		status = domain.JobNoText
	}
	if err := uc.jobs.SaveResult(ctx, jobID, status, record.Classification.PrimaryDepartment, record.DetectedLanguage); err != nil {
		return fmt.Errorf("save job result: %w", err)
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishRecord(ctx, record); err != nil {
			slog.Warn("job_record_publish_failed", "job_id", jobID, "error", err)
		}
	}
	return nil
}

func (uc *IntakeUseCase) runJob(ctx context.Context, jobID string) (*domain.PipelineRecord, error) {
	job, err := uc.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job by id: %w", err)
	}
	if uc.onPickup != nil {
		uc.onPickup(time.Since(job.CreatedAt))
	}

	reader, err := uc.storage.Open(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	raw, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	record, err := uc.pipeline.Process(ctx, domain.NewDocument(job.ID, job.Filename, job.ContentType, raw))
	if err != nil {
		return nil, fmt.Errorf("process job document: %w", err)
	}
	return record, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload.bin"
	}
	return base
}
