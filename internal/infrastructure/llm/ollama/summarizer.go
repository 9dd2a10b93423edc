package ollama

import (
	"context"
	"fmt"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const tokensPerWord = 2

type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, text string, budget domain.LengthBudget) (string, error) {
	options := map[string]any{"temperature": 0.2}
	if budget.MaxWords > 0 {
		options["num_predict"] = budget.MaxWords * tokensPerWord
	}
	out, err := s.client.generateText(ctx, "summarize", buildSummaryPrompt(text, budget), options)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("%w: empty summary", errModelOutput)
	}
	return out, nil
}
