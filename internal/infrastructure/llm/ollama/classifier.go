package ollama

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// ZeroShotClassifier asks the generation model for a probability per
// candidate label.
type ZeroShotClassifier struct {
	client *Client
}

func NewZeroShotClassifier(client *Client) *ZeroShotClassifier {
	return &ZeroShotClassifier{client: client}
}

// Classify returns every candidate label once, ordered by descending score.
// Labels the model omitted score 0; labels it invented are dropped.
func (c *ZeroShotClassifier) Classify(ctx context.Context, text string, labels []string) (domain.LabelScores, error) {
	if len(labels) == 0 {
		return domain.LabelScores{}, errors.New("zero-shot classify: no candidate labels")
	}

	reply, err := c.client.generateJSON(ctx, "zero_shot", buildZeroShotPrompt(text, labels))
	if err != nil {
		return domain.LabelScores{}, err
	}

	var parsed struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := decodeValidated(zeroShotValidator, reply, &parsed); err != nil {
		return domain.LabelScores{}, err
	}

	type scored struct {
		label string
		score float64
	}
	items := make([]scored, len(labels))
	for i, label := range labels {
		items[i] = scored{label: label, score: clampUnit(parsed.Scores[label])}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	out := domain.LabelScores{
		Labels: make([]string, len(items)),
		Scores: make([]float64, len(items)),
	}
	for i, item := range items {
		out.Labels[i] = item.label
		out.Scores[i] = item.score
	}
	return out, nil
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
