package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
)

func generateServer(t *testing.T, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if captured != nil {
			*captured = payload
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
	}))
}

func TestZeroShotClassifierOrdersByScore(t *testing.T) {
	var payload map[string]any
	server := generateServer(t, `Sure! {"scores": {"Finance & Accounts": 0.7, "Human Resources": 0.1, "Invented": 0.9, "Legal & Compliance": 1.4}}`, &payload)
	defer server.Close()

	classifier := NewZeroShotClassifier(New(server.URL, "gen", "embed"))
	labels := []string{"Human Resources", "Finance & Accounts", "Procurement & Contracts", "Legal & Compliance"}
	got, err := classifier.Classify(context.Background(), "invoice text", labels)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	wantLabels := []string{"Legal & Compliance", "Finance & Accounts", "Human Resources", "Procurement & Contracts"}
	wantScores := []float64{1, 0.7, 0.1, 0}
	if strings.Join(got.Labels, "|") != strings.Join(wantLabels, "|") {
		t.Fatalf("labels = %v", got.Labels)
	}
	for i := range wantScores {
		if got.Scores[i] != wantScores[i] {
			t.Fatalf("scores = %v", got.Scores)
		}
	}
	if payload["format"] != "json" || !strings.Contains(payload["prompt"].(string), "- Procurement & Contracts") {
		t.Fatalf("unexpected request %v", payload)
	}
}

func TestZeroShotClassifierRejectsMalformedReply(t *testing.T) {
	server := generateServer(t, `{"labels": ["a"]}`, nil)
	defer server.Close()

	_, err := NewZeroShotClassifier(New(server.URL, "gen", "embed")).Classify(context.Background(), "x", []string{"a"})
	if !errors.Is(err, errModelOutput) {
		t.Fatalf("expected model output error, got %v", err)
	}
}

func TestEntityRecognizerFiltersHallucinations(t *testing.T) {
	server := generateServer(t, `{"entities": [{"text": "KMRL", "label": "org"}, {"text": "Paris", "label": "GPE"}, {"text": "Kochi", "label": "GPE"}]}`, nil)
	defer server.Close()

	got, err := NewEntityRecognizer(New(server.URL, "gen", "embed")).Recognize(context.Background(), "KMRL office in Kochi")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	want := []domain.Entity{{Text: "KMRL", Label: "ORG"}, {Text: "Kochi", Label: "GPE"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Recognize() = %+v", got)
	}
}

func TestSummarizerSendsBudget(t *testing.T) {
	var payload map[string]any
	server := generateServer(t, "A short summary.", &payload)
	defer server.Close()

	got, err := NewSummarizer(New(server.URL, "gen", "embed")).Summarize(context.Background(), "long text", domain.LengthBudget{MinWords: 15, MaxWords: 30})
	if err != nil || got != "A short summary." {
		t.Fatalf("Summarize() = %q, %v", got, err)
	}
	options, _ := payload["options"].(map[string]any)
	if options["num_predict"] != float64(60) {
		t.Fatalf("unexpected options %v", options)
	}
	if !strings.Contains(payload["prompt"].(string), "between 15 and 30 words") {
		t.Fatalf("budget missing from prompt")
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewEmbedder(New(server.URL, "gen", "embed")).Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("502 should be temporary, got %v", err)
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
	embedder := NewEmbedder(NewWithOptions(server.URL, "gen", "embed", Options{Executor: executor}))

	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][1] != 0.4 || calls.Load() != 2 {
		t.Fatalf("unexpected vectors %v after %d calls", vectors, calls.Load())
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": [[0.1]]}`))
	}))
	defer server.Close()

	if _, err := NewEmbedder(New(server.URL, "gen", "embed")).Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, errModelOutput) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestStatusErrorUsesOllamaErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model \"gen\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	_, err := NewSummarizer(New(server.URL, "gen", "embed")).Summarize(context.Background(), "text", domain.LengthBudget{MinWords: 5, MaxWords: 10})
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound || !strings.HasPrefix(statusErr.Body, "model \"gen\" not found") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("missing model is not temporary")
	}
}

func TestEmbedRejectsRaggedVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": [[0.1, 0.2], [0.3]]}`))
	}))
	defer server.Close()

	if _, err := NewEmbedder(New(server.URL, "gen", "embed")).Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, errModelOutput) {
		t.Fatalf("expected ragged vector error, got %v", err)
	}
}
