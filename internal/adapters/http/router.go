package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const (
	serviceName      = "intake-api"
	backpressureWait = 2 * time.Second
)

// Recorder receives request-level domain measurements. Optional.
type Recorder interface {
	RecordDocument(service, outcome, department string)
	RecordSearch(service, endpoint string, hits int)
	RecordRejected(service, reason string)
}

type Router struct {
	cfg        config.Config
	processor  ports.DocumentProcessor
	similarity ports.SimilarityService
	jobs       ports.JobSubmitter
	recorder   Recorder
	metrics    http.Handler
}

// NewRouter wires the HTTP surface. jobs may be nil, in which case the async
// endpoints answer 503.
func NewRouter(
	cfg config.Config,
	processor ports.DocumentProcessor,
	similarity ports.SimilarityService,
	jobs ports.JobSubmitter,
) *Router {
	return &Router{
		cfg:        cfg,
		processor:  processor,
		similarity: similarity,
		jobs:       jobs,
	}
}

func (rt *Router) WithMetrics(recorder Recorder, handler http.Handler) *Router {
	rt.recorder = recorder
	rt.metrics = handler
	return rt
}

func (rt *Router) Handler() http.Handler {
	work := http.NewServeMux()
	work.HandleFunc("POST /process", rt.processDocument)
	work.HandleFunc("POST /rag_search", rt.embedQuery)
	work.HandleFunc("POST /v1/search", rt.searchSimilar)
	work.HandleFunc("POST /v1/jobs", rt.submitJob)
	work.HandleFunc("GET /v1/jobs/{job_id}", rt.getJob)

	var limited http.Handler = work
	limited = backpressureMiddleware(limited, rt.cfg.HTTPMaxInFlight, backpressureWait)
	limited = rateLimitMiddleware(limited, rt.cfg.HTTPRateLimitRPS, rt.cfg.HTTPRateLimitBurst, func() {
		if rt.recorder != nil {
			rt.recorder.RecordRejected(serviceName, "rate_limit")
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPI)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}
	mux.Handle("/", limited)

	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIDocument)
}

func (rt *Router) processDocument(w http.ResponseWriter, r *http.Request) {
	filename, contentType, raw, err := rt.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc := domain.NewDocument("", filename, contentType, raw)
	record, err := rt.processor.Process(r.Context(), doc)
	if err != nil {
		rt.recordDocument("error", "")
		slog.Error("process_document_failed", "request_id", requestIDFromContext(r.Context()), "file_name", filename, "error", err)
		writeError(w, err)
		return
	}

	if record.NoText {
		rt.recordDocument("no_text", "")
		writeJSON(w, http.StatusOK, map[string]string{
			"file_name": record.FileName,
			"error":     domain.NoTextMessage,
		})
		return
	}

	rt.recordDocument("ok", record.Classification.PrimaryDepartment)
	writeJSON(w, http.StatusOK, processResponse(record, rt.cfg.EmbeddingPreviewDim))
}

func (rt *Router) embedQuery(w http.ResponseWriter, r *http.Request) {
	query, err := decodeQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	vector, err := rt.similarity.EmbedQuery(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":            query,
		"embedding_vector": vector,
	})
}

func (rt *Router) searchSimilar(w http.ResponseWriter, r *http.Request) {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "bind limit", err))
		return
	}
	query, err := decodeQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	hits, err := rt.similarity.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.recorder != nil {
		rt.recorder.RecordSearch(serviceName, "/v1/search", len(hits))
	}

	out := make([]searchHitResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, searchHitResponse{
			DocumentID: hit.Entry.DocumentID,
			FileName:   hit.Entry.Filename,
			Text:       hit.Entry.Text,
			Distance:   hit.Distance,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "hits": out})
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	if rt.jobs == nil {
		writeError(w, domain.WrapError(domain.ErrTemporary, "submit job", errors.New("async intake is not configured")))
		return
	}

	file, header, err := rt.formFile(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	job, err := rt.jobs.Submit(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	if rt.jobs == nil {
		writeError(w, domain.WrapError(domain.ErrTemporary, "get job", errors.New("async intake is not configured")))
		return
	}

	id := strings.TrimSpace(r.PathValue("job_id"))
	if id == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "get job", errors.New("job id is required")))
		return
	}
	job, err := rt.jobs.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (rt *Router) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if rt.cfg.HTTPMaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.HTTPMaxUploadBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errUploadTooLarge
		}
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required"))
	}
	return file, header, nil
}

func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (string, string, []byte, error) {
	file, header, err := rt.formFile(w, r)
	if err != nil {
		return "", "", nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, header.Header.Get("Content-Type"), raw, nil
}

func (rt *Router) recordDocument(outcome, department string) {
	if rt.recorder != nil {
		rt.recorder.RecordDocument(serviceName, outcome, department)
	}
}

func decodeQuery(r *http.Request) (string, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode query", errors.New("invalid json"))
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "decode query", errors.New("query is required"))
	}
	return query, nil
}

type searchHitResponse struct {
	DocumentID string  `json:"document_id,omitempty"`
	FileName   string  `json:"file_name,omitempty"`
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
}

// processResponse flattens the record into the public shape. The summary
// translation key follows the target language, e.g. summary_ml, and is
// omitted for an English target.
func processResponse(record *domain.PipelineRecord, previewDims int) map[string]any {
	vector := record.Embedding
	if previewDims > 0 && len(vector) > previewDims {
		vector = vector[:previewDims]
	}
	if vector == nil {
		vector = domain.Vector{}
	}

	target := record.Summary.TargetLanguage
	if target == "" {
		target = domain.LanguageMalayalam
	}
	out := map[string]any{
		"file_name":         record.FileName,
		"document_id":       record.DocumentID,
		"detected_language": record.DetectedLanguage,
		"extraction_source": record.ExtractionSource,
		"original_text":     record.OriginalText,
		"translated_text":   record.TranslatedText,
		"classification":    record.Classification,
		"metadata":          record.Metadata,
		"embedding_vector":  vector,
		"summary_en":        record.Summary.SummaryEN,
		"processed_at":      record.ProcessedAt,
	}
	// An English target already lives in summary_en.
	if target != domain.LanguageEnglish {
		out["summary_"+string(target)] = record.Summary.SummaryTarget
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
