package ollama

import (
	"context"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type EntityRecognizer struct {
	client *Client
}

func NewEntityRecognizer(client *Client) *EntityRecognizer {
	return &EntityRecognizer{client: client}
}

// Recognize keeps only entities whose span occurs in the source text.
func (r *EntityRecognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	reply, err := r.client.generateJSON(ctx, "ner", buildNERPrompt(text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Entities []domain.Entity `json:"entities"`
	}
	if err := decodeValidated(entitiesValidator, reply, &parsed); err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	out := make([]domain.Entity, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		span := strings.TrimSpace(e.Text)
		if span == "" || !strings.Contains(lower, strings.ToLower(span)) {
			continue
		}
		out = append(out, domain.Entity{Text: span, Label: strings.ToUpper(strings.TrimSpace(e.Label))})
	}
	return out, nil
}
