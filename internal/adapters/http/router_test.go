package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/domain"
)

type processorFake struct {
	record  *domain.PipelineRecord
	err     error
	lastDoc domain.Document
}

func newProcessorFake() *processorFake {
	ml := "സംഗ്രഹം"
	return &processorFake{record: &domain.PipelineRecord{
		DocumentID:       "doc-1",
		FileName:         "bill.pdf",
		DetectedLanguage: domain.LanguageEnglish,
		ExtractionSource: domain.SourceDirect,
		OriginalText:     "Invoice INV-1",
		TranslatedText:   "Invoice INV-1",
		Classification:   domain.ClassificationResult{PrimaryDepartment: "Finance & Accounts", Method: domain.MethodHybrid},
		Metadata:         domain.EmptyMetadata(),
		Embedding:        domain.Vector{1, 2, 3, 4},
		Summary:          domain.SummaryResult{SummaryEN: "An invoice.", SummaryTarget: &ml, TargetLanguage: domain.LanguageMalayalam},
		ProcessedAt:      time.Now().UTC(),
	}}
}

func (f *processorFake) Process(_ context.Context, doc domain.Document) (*domain.PipelineRecord, error) {
	f.lastDoc = doc
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *processorFake) ProcessText(_ context.Context, filename, text string) (*domain.PipelineRecord, error) {
	return f.Process(context.Background(), domain.NewDocument("", filename, "text/plain", []byte(text)))
}

type similarityFake struct {
	err       error
	lastLimit int
}

func (f *similarityFake) EmbedQuery(context.Context, string) (domain.Vector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return domain.Vector{0.5, 0.25}, nil
}

func (f *similarityFake) Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []domain.SearchHit{{Entry: domain.IndexEntry{DocumentID: "doc-1", Filename: "bill.pdf", Text: "Invoice"}, Distance: 0.1}}, nil
}

type jobsFake struct {
	err error
}

func (f jobsFake) Submit(_ context.Context, filename, contentType string, body io.Reader) (*domain.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, _ := io.ReadAll(body)
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit", io.EOF)
	}
	return &domain.Job{ID: "job-1", Filename: filename, ContentType: contentType, Status: domain.JobQueued}, nil
}

func (f jobsFake) GetJob(_ context.Context, id string) (*domain.Job, error) {
	if id != "job-1" {
		return nil, domain.WrapError(domain.ErrNotFound, "get job", errors.New(id))
	}
	return &domain.Job{ID: id, Status: domain.JobCompleted, Department: "Finance & Accounts"}, nil
}

func newTestHandler(cfg config.Config, processor *processorFake) http.Handler {
	return NewRouter(cfg, processor, &similarityFake{}, jobsFake{}).Handler()
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestProcessReturnsRecord(t *testing.T) {
	processor := newProcessorFake()
	handler := newTestHandler(config.Config{EmbeddingPreviewDim: 2}, processor)

	body, contentType := multipartBody(t, "bill.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	out := decodeBody(t, res)
	if out["file_name"] != "bill.pdf" || out["summary_ml"] != "സംഗ്രഹം" || out["summary_en"] != "An invoice." {
		t.Fatalf("unexpected response %v", out)
	}
	if vec, _ := out["embedding_vector"].([]any); len(vec) != 2 {
		t.Fatalf("expected 2-dim preview, got %v", out["embedding_vector"])
	}
	if processor.lastDoc.Format != domain.FormatPDF || string(processor.lastDoc.Raw) != "%PDF-1.4" {
		t.Fatalf("unexpected document %+v", processor.lastDoc)
	}
}

func TestProcessEnglishTargetKeepsSummaryEN(t *testing.T) {
	processor := newProcessorFake()
	processor.record.Summary = domain.SummaryResult{SummaryEN: "An invoice.", TargetLanguage: domain.LanguageEnglish}
	handler := newTestHandler(config.Config{}, processor)

	body, contentType := multipartBody(t, "bill.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	out := decodeBody(t, res)
	if res.Code != http.StatusOK || out["summary_en"] != "An invoice." {
		t.Fatalf("summary_en lost for english target: %d %v", res.Code, out)
	}
	if _, ok := out["summary_ml"]; ok {
		t.Fatalf("unexpected summary_ml key in %v", out)
	}
}

func TestProcessNoTextShape(t *testing.T) {
	processor := newProcessorFake()
	processor.record = &domain.PipelineRecord{FileName: "blank.png", NoText: true}
	handler := newTestHandler(config.Config{}, processor)

	body, contentType := multipartBody(t, "blank.png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	out := decodeBody(t, res)
	if res.Code != http.StatusOK || len(out) != 2 || out["error"] != domain.NoTextMessage || out["file_name"] != "blank.png" {
		t.Fatalf("unexpected no-text response %d %v", res.Code, out)
	}
}

func TestProcessErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrClassification, "classify", errors.New("model down")), http.StatusBadGateway},
		{domain.WrapError(domain.ErrTemporary, "embed", errors.New("breaker open")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		processor := newProcessorFake()
		processor.err = tc.err
		handler := newTestHandler(config.Config{}, processor)

		body, contentType := multipartBody(t, "a.txt", []byte("hello"))
		req := httptest.NewRequest(http.MethodPost, "/process", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, res.Code)
		}
	}
}

func TestProcessMissingFileAndTooLarge(t *testing.T) {
	handler := newTestHandler(config.Config{HTTPMaxUploadBytes: 64}, newProcessorFake())

	req := httptest.NewRequest(http.MethodPost, "/process", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	body, contentType := multipartBody(t, "big.txt", bytes.Repeat([]byte("x"), 1024))
	req = httptest.NewRequest(http.MethodPost, "/process", body)
	req.Header.Set("Content-Type", contentType)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestRagSearchReturnsEmbedding(t *testing.T) {
	handler := newTestHandler(config.Config{}, newProcessorFake())

	req := httptest.NewRequest(http.MethodPost, "/rag_search", strings.NewReader(`{"query":"metro tender"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	out := decodeBody(t, res)
	if res.Code != http.StatusOK || out["query"] != "metro tender" {
		t.Fatalf("unexpected response %d %v", res.Code, out)
	}
	if vec, _ := out["embedding_vector"].([]any); len(vec) != 2 {
		t.Fatalf("unexpected vector %v", out["embedding_vector"])
	}

	for _, payload := range []string{`{"query":"  "}`, `not json`} {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/rag_search", strings.NewReader(payload)))
		if res.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, res.Code)
		}
	}
}

func TestSearchBindsLimit(t *testing.T) {
	similarity := &similarityFake{}
	handler := NewRouter(config.Config{}, newProcessorFake(), similarity, nil).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/search?limit=7", strings.NewReader(`{"query":"invoice"}`)))
	if res.Code != http.StatusOK || similarity.lastLimit != 7 {
		t.Fatalf("expected limit 7, got %d (status %d)", similarity.lastLimit, res.Code)
	}
	out := decodeBody(t, res)
	if hits, _ := out["hits"].([]any); len(hits) != 1 {
		t.Fatalf("unexpected hits %v", out)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/search?limit=many", strings.NewReader(`{"query":"invoice"}`)))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", res.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	handler := newTestHandler(config.Config{}, newProcessorFake())

	body, contentType := multipartBody(t, "memo.docx", []byte("PK"))
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusAccepted || decodeBody(t, res)["id"] != "job-1" {
		t.Fatalf("expected 202 queued job, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil))
	if res.Code != http.StatusOK || decodeBody(t, res)["status"] != "completed" {
		t.Fatalf("unexpected job response %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestJobsDisabledReturns503(t *testing.T) {
	handler := NewRouter(config.Config{}, newProcessorFake(), &similarityFake{}, nil).Handler()
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestOpenAPIDocumentIsValidAndServed(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	if err != nil {
		t.Fatalf("LoadOpenAPI() error = %v", err)
	}
	for _, path := range []string{"/process", "/rag_search", "/v1/search", "/v1/jobs", "/v1/jobs/{job_id}"} {
		if doc.Paths.Find(path) == nil {
			t.Fatalf("openapi document missing %s", path)
		}
	}

	res := httptest.NewRecorder()
	newTestHandler(config.Config{}, newProcessorFake()).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "openapi: 3.0.3") {
		t.Fatalf("unexpected openapi response %d", res.Code)
	}
}
