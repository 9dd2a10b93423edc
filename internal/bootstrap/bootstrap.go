package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/core/usecase"
	"github.com/kirillkom/document-intake/internal/infrastructure/chunking"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/document-intake/internal/infrastructure/extractor/xlsx"
	"github.com/kirillkom/document-intake/internal/infrastructure/langid"
	"github.com/kirillkom/document-intake/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-intake/internal/infrastructure/ocr"
	"github.com/kirillkom/document-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
	"github.com/kirillkom/document-intake/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-intake/internal/infrastructure/translate/libretranslate"
	"github.com/kirillkom/document-intake/internal/infrastructure/vector/memory"
	"github.com/kirillkom/document-intake/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/document-intake/internal/observability/metrics"
)

const maxSheetRows = 10000

type Options struct {
	Service string
	// Registerer receives pipeline metrics. Nil skips them.
	Registerer prometheus.Registerer
	// Jobs forces the async path on regardless of JOBS_ENABLED.
	Jobs bool
}

type App struct {
	Config config.Config

	Pipeline   *usecase.PipelineUseCase
	Similarity *usecase.EmbedUseCase
	Intake     *usecase.IntakeUseCase
	Queue      *nats.Queue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	var observer *metrics.PipelineMetrics
	if opts.Registerer != nil {
		observer = metrics.NewPipelineMetrics(opts.Service, opts.Registerer)
	}

	pipeline, similarity, err := newPipeline(cfg, observer)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Pipeline: pipeline, Similarity: similarity}

	if !cfg.JobsEnabled && !opts.Jobs {
		return app, nil
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResultSubject:      cfg.NATSResultSubject,
		ResilienceExecutor: newExecutor(cfg, observer),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	app.Queue = queue
	app.Intake = usecase.NewIntakeUseCase(repo, storage, queue, pipeline, queue)
	app.closeFn = func() {
		queue.Close()
		_ = db.Close()
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newPipeline(cfg config.Config, observer *metrics.PipelineMetrics) (*usecase.PipelineUseCase, *usecase.EmbedUseCase, error) {
	taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, nil, err
	}

	// A typed nil would hide "not configured" from the use cases.
	var stages ports.StageObserver
	if observer != nil {
		stages = observer
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:  cfg.OllamaTimeout,
		Executor: newExecutor(cfg, observer),
	})

	ocrEngine := ocr.NewEngine(ocr.Config{
		Tesseract:     cfg.OCRTesseract,
		TesseractLang: cfg.OCRLanguages,
		Pdftoppm:      cfg.OCRPdftoppm,
		Pdfinfo:       cfg.OCRPdfinfo,
		DPI:           cfg.OCRDPI,
		MaxPages:      cfg.OCRMaxPages,
		PSM:           cfg.OCRPSM,
		TempDir:       cfg.OCRTempDir,
	}, ocr.ExecRunner{})

	extractor := usecase.NewExtractTextUseCase(usecase.ExtractOptions{
		Readers: map[domain.Format]ports.SegmentReader{
			domain.FormatPDF:  pdftext.NewReader(cfg.OCRMaxPages),
			domain.FormatDOCX: docx.NewReader(),
			domain.FormatXLSX: xlsx.NewReader(maxSheetRows),
			domain.FormatText: plaintext.NewReader(),
		},
		Rasterizer: ocrEngine,
		Recognizer: ocrEngine,
		Observer:   stages,
		MaxWorkers: cfg.OCRWorkers,
	})

	var translationService ports.TranslationService
	if cfg.TranslatorURL != "" {
		translationService = libretranslate.New(cfg.TranslatorURL, libretranslate.Options{
			APIKey:  cfg.TranslatorAPIKey,
			Timeout: cfg.TranslatorTimeout,
			RPS:     cfg.TranslatorRPS,
		})
	} else {
		slog.Warn("translator_not_configured", "effect", "non-english text is processed untranslated")
	}
	translator := usecase.NewTranslator(translationService, chunking.NewSplitter(cfg.TranslationChunk, 0), stages)

	index, err := newIndex(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder := usecase.NewEmbedUseCase(ollama.NewEmbedder(ollamaClient), index, stages)

	summarizer := usecase.NewSummarizeUseCase(
		ollama.NewSummarizer(ollamaClient),
		chunking.NewSplitter(cfg.SummaryChunkSize, 0),
		translator,
		usecase.SummarizeOptions{
			ChunkThreshold:  cfg.SummaryChunkThreshold,
			MaxSentences:    cfg.SummaryMaxSentences,
			MinWords:        cfg.SummaryMinWords,
			MaxWords:        cfg.SummaryMaxWords,
			Ratio:           cfg.SummaryRatio,
			OutputSentences: cfg.SummaryOutputSentences,
			FallbackLines:   cfg.SummaryFallbackLines,
			TargetLanguage:  domain.ParseLanguageTag(cfg.SummaryTargetLanguage),
		},
	)

	pipeline := usecase.NewPipelineUseCase(usecase.PipelineDeps{
		Extractor:  extractor,
		Language:   usecase.NewLanguageService(langid.New(cfg.LangIDMinLetters)),
		Translator: translator,
		Classifier: usecase.NewClassifyUseCase(taxonomy, ollama.NewZeroShotClassifier(ollamaClient), usecase.ClassifyOptions{
			Boost:        cfg.ClassifierBoost,
			RuleFallback: cfg.ClassifierRuleFallback,
		}),
		Metadata:   usecase.NewMetadataUseCase(ollama.NewEntityRecognizer(ollamaClient), nil),
		Embedder:   embedder,
		Summarizer: summarizer,
		Observer:   stages,
	})
	return pipeline, embedder, nil
}

func newIndex(cfg config.Config) (ports.SimilarityIndex, error) {
	switch cfg.IndexBackend {
	case "", "memory":
		return memory.NewIndex(), nil
	case "qdrant":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "select index backend", fmt.Errorf("unknown backend %q", cfg.IndexBackend))
	}
}

func newExecutor(cfg config.Config, observer *metrics.PipelineMetrics) *resilience.Executor {
	executor := resilience.NewExecutor(cfg.Resilience)
	if observer != nil {
		executor.WithObserver(observer)
	}
	return executor
}
