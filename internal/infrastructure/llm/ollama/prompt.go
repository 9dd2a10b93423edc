package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

const maxPromptRunes = 6000

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > maxPromptRunes {
		runes = runes[:maxPromptRunes]
	}
	return string(runes)
}

func buildZeroShotPrompt(text string, labels []string) string {
	var b strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s\n", label)
	}
	return `You are a zero-shot document classifier for a metro rail organisation.
For every candidate department below, give the probability (0 to 1) that the document belongs to it.
Return strict JSON: {"scores": {"<department>": <number>, ...}} using the department names verbatim.
No markdown, no extra keys.

Candidate departments:
` + b.String() + `
Document:
` + snippet(text)
}

func buildNERPrompt(text string) string {
	return `Extract named entities from the document.
Use label ORG for organisations, GPE for cities, states and countries, LOC for other places.
Return strict JSON: {"entities": [{"text": "<span as written>", "label": "ORG|GPE|LOC"}]}.
Return {"entities": []} when there are none. No markdown, no extra keys.

Document:
` + snippet(text)
}

func buildSummaryPrompt(text string, budget domain.LengthBudget) string {
	return fmt.Sprintf(`Summarize the document below in plain English prose between %d and %d words.
Keep names, identifiers, amounts and dates exact. Do not add a title or preamble.

Document:
%s
`, budget.MinWords, budget.MaxWords, snippet(text))
}
