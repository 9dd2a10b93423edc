package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func TestMiddlewareNormalizesJobPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", "GET", "/v1/jobs/{job_id}", "404")); got != 1 {
		t.Fatalf("requests_total = %v", got)
	}
}

func TestPipelineMetricsSharesRegistry(t *testing.T) {
	server := NewHTTPServerMetrics("api")
	pipeline := NewPipelineMetrics("api", server.Registry())

	pipeline.ObserveStage("extract", "ok", 0.2)
	pipeline.ObserveOCRPage("error")
	pipeline.ObserveTranslationFallback("ml->en")
	pipeline.ObserveIndexSize(3)
	pipeline.ObserveRetry("ollama.embed")
	pipeline.ObserveBreakerState("ollama.embed", "open")

	if got := testutil.ToFloat64(pipeline.indexSize); got != 3 {
		t.Fatalf("index size = %v", got)
	}
	if got := testutil.ToFloat64(pipeline.breakerState.WithLabelValues("api", "ollama.embed")); got != 1 {
		t.Fatalf("breaker gauge = %v", got)
	}
	pipeline.ObserveBreakerState("ollama.embed", "closed")
	if got := testutil.ToFloat64(pipeline.breakerState.WithLabelValues("api", "ollama.embed")); got != 0 {
		t.Fatalf("breaker gauge after close = %v", got)
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"intake_pipeline_stage_total", "intake_translation_fallback_total", "intake_capability_retries_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestWorkerMetricsFinishJob(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartJob()
	m.FinishJob(time.Second, nil)
	m.StartJob()
	m.FinishJob(time.Second, domain.WrapError(domain.ErrTemporary, "ollama embed", errors.New("503")))
	m.ObserveQueueLag(-time.Second)
	m.ObserveQueueLag(2 * time.Second)

	if got := testutil.ToFloat64(m.jobsInFlight); got != 0 {
		t.Fatalf("in flight = %v", got)
	}
	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok jobs = %v", got)
	}
	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues("temporary")); got != 1 {
		t.Fatalf("temporary jobs = %v", got)
	}
	if got := testutil.CollectAndCount(m.queueLag); got != 1 {
		t.Fatalf("queue lag series = %d", got)
	}
}

func TestJobOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":                    nil,
		"timeout":               fmt.Errorf("process: %w", context.DeadlineExceeded),
		"classification_failed": domain.WrapError(domain.ErrClassification, "classify", errors.New("x")),
		"not_found":             domain.WrapError(domain.ErrNotFound, "get job", errors.New("x")),
		"error":                 errors.New("boom"),
	}
	for want, err := range cases {
		if got := jobOutcome(err); got != want {
			t.Errorf("jobOutcome(%v) = %q, want %q", err, got, want)
		}
	}
}
