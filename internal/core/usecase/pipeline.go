package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const (
	StageExtract   = "extract"
	StageLanguage  = "language"
	StageTranslate = "translate"
	StageClassify  = "classify"
	StageMetadata  = "metadata"
	StageEmbed     = "embed"
	StageSummarize = "summarize"
)

type PipelineUseCase struct {
	extractor  *ExtractTextUseCase
	language   *LanguageService
	translator *Translator
	classifier *ClassifyUseCase
	metadata   *MetadataUseCase
	embedder   *EmbedUseCase
	summarizer *SummarizeUseCase
	observer   ports.StageObserver
	now        func() time.Time
}

type PipelineDeps struct {
	Extractor  *ExtractTextUseCase
	Language   *LanguageService
	Translator *Translator
	Classifier *ClassifyUseCase
	Metadata   *MetadataUseCase
	Embedder   *EmbedUseCase
	Summarizer *SummarizeUseCase
	Observer   ports.StageObserver
}

func NewPipelineUseCase(deps PipelineDeps) *PipelineUseCase {
	return &PipelineUseCase{
		extractor:  deps.Extractor,
		language:   deps.Language,
		translator: deps.Translator,
		classifier: deps.Classifier,
		metadata:   deps.Metadata,
		embedder:   deps.Embedder,
		summarizer: deps.Summarizer,
		observer:   deps.Observer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the whole pipeline for one document. Only classification
// failures and context cancellation are returned as errors; a document
// without text yields a record with NoText set.
func (uc *PipelineUseCase) Process(ctx context.Context, doc domain.Document) (*domain.PipelineRecord, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	started := time.Now()
	extraction := uc.extractor.Extract(ctx, doc)
	uc.observe(StageExtract, extraction.Success, started)
	slog.Info("pipeline_stage",
		"stage", StageExtract,
		"document_id", doc.ID,
		"format", doc.Format,
		"source", extraction.Source,
		"pages", extraction.Pages,
		"chars", len(extraction.Text),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}
	if !extraction.Success {
		return uc.noText(doc), nil
	}
	return uc.analyze(ctx, doc.ID, doc.Filename, extraction.Text, extraction.Source)
}

// ProcessText runs every stage after extraction over already available text.
func (uc *PipelineUseCase) ProcessText(ctx context.Context, filename, text string) (*domain.PipelineRecord, error) {
	id := uuid.NewString()
	text = strings.TrimSpace(text)
	if text == "" {
		return uc.noText(domain.Document{ID: id, Filename: filename}), nil
	}
	return uc.analyze(ctx, id, filename, text, domain.SourceDirect)
}

func (uc *PipelineUseCase) analyze(
	ctx context.Context,
	documentID, filename, text string,
	source domain.ExtractionSource,
) (*domain.PipelineRecord, error) {
	started := time.Now()
	lang := uc.language.Detect(ctx, text)
	uc.observe(StageLanguage, lang != domain.LanguageUnknown, started)

	normalized := text
	if lang.NeedsTranslation() {
		started = time.Now()
		result := uc.translator.ToEnglish(ctx, text, lang)
		uc.observe(StageTranslate, result.Translated, started)
		normalized = result.Text
	}

	started = time.Now()
	classification, err := uc.classifier.Classify(ctx, normalized)
	uc.observe(StageClassify, err == nil, started)
	if err != nil {
		slog.Error("pipeline_classification_failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("classify document: %w", err)
	}

	started = time.Now()
	metadata := uc.metadata.Extract(ctx, normalized)
	uc.observe(StageMetadata, true, started)

	started = time.Now()
	embedding := domain.Vector{}
	vectors, err := uc.embedder.Embed(ctx, []string{normalized}, domain.IndexRef{
		Kind:       domain.EntryDocument,
		DocumentID: documentID,
		Filename:   filename,
	})
	uc.observe(StageEmbed, err == nil, started)
	if err != nil {
		slog.Warn("pipeline_embedding_failed", "document_id", documentID, "error", err)
	} else {
		embedding = vectors[0]
	}

	started = time.Now()
	summary := uc.summarizer.Run(ctx, normalized)
	uc.observe(StageSummarize, summary.SummaryEN != "", started)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}

	slog.Info("pipeline_completed",
		"document_id", documentID,
		"language", lang,
		"department", classification.PrimaryDepartment,
		"embedding_dims", len(embedding),
		"summary_translated", summary.SummaryTarget != nil,
	)

	return &domain.PipelineRecord{
		DocumentID:       documentID,
		FileName:         filename,
		DetectedLanguage: lang,
		ExtractionSource: source,
		OriginalText:     text,
		TranslatedText:   normalized,
		Classification:   classification,
		Metadata:         metadata,
		Embedding:        embedding,
		Summary:          summary,
		ProcessedAt:      uc.now(),
	}, nil
}

func (uc *PipelineUseCase) noText(doc domain.Document) *domain.PipelineRecord {
	slog.Info("pipeline_no_text", "document_id", doc.ID, "file_name", doc.Filename)
	return &domain.PipelineRecord{
		DocumentID:       doc.ID,
		FileName:         doc.Filename,
		NoText:           true,
		DetectedLanguage: domain.LanguageUnknown,
		ExtractionSource: domain.SourceNone,
		Classification:   domain.UnknownClassification(),
		Metadata:         domain.EmptyMetadata(),
		Embedding:        domain.Vector{},
		ProcessedAt:      uc.now(),
	}
}

func (uc *PipelineUseCase) observe(stage string, ok bool, started time.Time) {
	if uc.observer == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "degraded"
	}
	uc.observer.ObserveStage(stage, status, time.Since(started).Seconds())
}

// IsClassificationFailure reports whether a pipeline error came from the
// zero-shot stage rather than cancellation.
func IsClassificationFailure(err error) bool {
	return errors.Is(err, domain.ErrClassification)
}
