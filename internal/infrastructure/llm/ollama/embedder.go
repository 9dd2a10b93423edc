package ollama

import (
	"context"
	"fmt"
)

// Embedder uses /api/embed, batching all inputs into one call.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	// Truncate lets the server cut inputs past the model context instead
	// of failing the whole batch.
	Truncate bool `json:"truncate"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var response embedResponse
	request := embedRequest{Model: e.client.embedModel, Input: texts, Truncate: true}
	if err := e.client.call(ctx, "embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", errModelOutput, len(response.Embeddings), len(texts))
	}
	dim := len(response.Embeddings[0])
	for i, vec := range response.Embeddings {
		if len(vec) == 0 || len(vec) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dims, want %d", errModelOutput, i, len(vec), dim)
		}
	}
	return response.Embeddings, nil
}
