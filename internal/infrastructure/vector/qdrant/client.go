package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// Client stores index entries as points of one Qdrant collection using the
// Euclid distance, so scores are L2 distances like the in-memory index.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Append(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	size := len(entries[0].Vector)
	for _, entry := range entries {
		if len(entry.Vector) == 0 || len(entry.Vector) != size {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant append", fmt.Errorf("inconsistent vector dimensions"))
		}
	}

	if err := c.ensureCollection(ctx, size); err != nil {
		return err
	}

	points := make([]point, 0, len(entries))
	for _, entry := range entries {
		points = append(points, point{
			ID:     entry.ID,
			Vector: entry.Vector,
			Payload: map[string]any{
				"kind":        string(entry.Kind),
				"document_id": entry.DocumentID,
				"filename":    entry.Filename,
				"text":        entry.Text,
				"created_at":  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	return c.do(ctx, "upsert", http.MethodPut, path, map[string]any{"points": points}, nil)
}

func (c *Client) Search(ctx context.Context, vector domain.Vector, limit int, kind domain.IndexEntryKind) ([]domain.SearchHit, error) {
	if limit <= 0 || len(vector) == 0 {
		return []domain.SearchHit{}, nil
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if kind != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "kind", "match": map[string]any{"value": string(kind)}},
			},
		}
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.do(ctx, "search", http.MethodPost, path, reqBody, &searchResp); err != nil {
		if isMissingCollection(err) {
			return []domain.SearchHit{}, nil
		}
		return nil, err
	}

	out := make([]domain.SearchHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		created, _ := time.Parse(time.RFC3339Nano, getStringPayload(r.Payload, "created_at"))
		out = append(out, domain.SearchHit{
			Entry: domain.IndexEntry{
				ID:         fmt.Sprintf("%v", r.ID),
				Kind:       domain.IndexEntryKind(getStringPayload(r.Payload, "kind")),
				DocumentID: getStringPayload(r.Payload, "document_id"),
				Filename:   getStringPayload(r.Payload, "filename"),
				Text:       getStringPayload(r.Payload, "text"),
				CreatedAt:  created,
			},
			Distance: r.Score,
		})
	}
	return out, nil
}

func (c *Client) Len(ctx context.Context) (int, error) {
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/count", c.collection)
	if err := c.do(ctx, "count", http.MethodPost, path, map[string]any{"exact": true}, &countResp); err != nil {
		if isMissingCollection(err) {
			return 0, nil
		}
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Euclid",
		},
	}
	err := c.do(ctx, "ensure collection", http.MethodPut, "/collections/"+c.collection, reqBody, nil)
	// 409 if it already exists (depends on version/config).
	var statusErr *statusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.code == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	return nil
}

type statusError struct {
	op     string
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.op, e.status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.op, e.status, e.body)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "qdrant "+op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{op: op, code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func isMissingCollection(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
