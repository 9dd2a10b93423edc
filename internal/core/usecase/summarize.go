package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const (
	defaultChunkThreshold  = 3000
	defaultMaxSentences    = 40
	defaultSummaryMinWords = 30
	defaultSummaryMaxWords = 200
	defaultSummaryRatio    = 0.5
	defaultOutputSentences = 8
	defaultFallbackLines   = 5
)

var (
	preamblePattern = regexp.MustCompile(`(?i)^\s*(?:here(?:\s+is|'s)|sure|certainly|okay|ok)\b[^:\n]*:\s*`)
	labelPattern    = regexp.MustCompile(`(?i)^\s*(?:summary|in summary|tl;dr)\s*[:\-]\s*`)
	bulletPattern   = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)
)

func chunkPlaceholder(n int) string {
	return fmt.Sprintf("[section %d summary unavailable]", n)
}

type SummarizeOptions struct {
	ChunkThreshold  int
	MaxSentences    int
	MinWords        int
	MaxWords        int
	Ratio           float64
	OutputSentences int
	FallbackLines   int
	TargetLanguage  domain.LanguageTag
}

type SummarizeUseCase struct {
	model      ports.TextSummarizer
	chunker    ports.Chunker
	translator *Translator
	opts       SummarizeOptions
}

func NewSummarizeUseCase(model ports.TextSummarizer, chunker ports.Chunker, translator *Translator, opts SummarizeOptions) *SummarizeUseCase {
	if opts.ChunkThreshold <= 0 {
		opts.ChunkThreshold = defaultChunkThreshold
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = defaultMaxSentences
	}
	if opts.MinWords <= 0 {
		opts.MinWords = defaultSummaryMinWords
	}
	if opts.MaxWords < opts.MinWords {
		opts.MaxWords = max(defaultSummaryMaxWords, opts.MinWords)
	}
	if opts.Ratio <= 0 {
		opts.Ratio = defaultSummaryRatio
	}
	if opts.OutputSentences <= 0 {
		opts.OutputSentences = defaultOutputSentences
	}
	if opts.FallbackLines <= 0 {
		opts.FallbackLines = defaultFallbackLines
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = domain.LanguageMalayalam
	}
	return &SummarizeUseCase{model: model, chunker: chunker, translator: translator, opts: opts}
}

// Run produces the English summary and its target-language translation.
func (uc *SummarizeUseCase) Run(ctx context.Context, text string) domain.SummaryResult {
	summary := uc.Summarize(ctx, text)
	return domain.SummaryResult{
		SummaryEN:      summary,
		SummaryTarget:  uc.TranslateSummary(ctx, summary),
		TargetLanguage: uc.opts.TargetLanguage,
	}
}

func (uc *SummarizeUseCase) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if len([]rune(text)) < uc.opts.ChunkThreshold {
		summary, err := uc.model.Summarize(ctx, text, uc.Budget(text))
		if err == nil {
			if cleaned := uc.cleanup(summary); cleaned != "" {
				return cleaned
			}
		}
		slog.Warn("summary_single_pass_failed", "error", err)
		return uc.excerpt(text)
	}

	sentences := SplitSentences(text)
	if len(sentences) > uc.opts.MaxSentences {
		sentences = sentences[:uc.opts.MaxSentences]
	}
	reduced := strings.Join(sentences, " ")

	chunks := uc.chunker.Split(reduced)
	if len(chunks) == 0 {
		chunks = []string{reduced}
	}

	partials := make([]string, len(chunks))
	succeeded := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := uc.model.Summarize(ctx, chunk, uc.Budget(chunk))
		summary = strings.TrimSpace(summary)
		if err != nil || uc.cleanup(summary) == "" {
			slog.Warn("summary_chunk_failed", "chunk", i+1, "chunks", len(chunks), "error", err)
			partials[i] = chunkPlaceholder(i + 1)
			continue
		}
		partials[i] = summary
		succeeded = append(succeeded, summary)
	}
	if len(succeeded) == 0 {
		slog.Warn("summary_all_chunks_failed", "chunks", len(chunks))
		return uc.excerpt(text)
	}

	joined := strings.Join(partials, " ")
	final, err := uc.model.Summarize(ctx, joined, uc.Budget(joined))
	if err == nil {
		if cleaned := uc.cleanup(final); cleaned != "" {
			return cleaned
		}
	}
	slog.Warn("summary_reduce_failed", "error", err)
	return uc.cleanup(strings.Join(succeeded, " "))
}

// TranslateSummary returns nil when the summary cannot be translated.
func (uc *SummarizeUseCase) TranslateSummary(ctx context.Context, summaryEN string) *string {
	if strings.TrimSpace(summaryEN) == "" {
		return nil
	}
	if uc.opts.TargetLanguage == domain.LanguageEnglish {
		out := summaryEN
		return &out
	}
	if uc.translator == nil {
		return nil
	}
	result := uc.translator.Translate(ctx, summaryEN, domain.LanguageEnglish, uc.opts.TargetLanguage)
	if !result.Translated {
		return nil
	}
	return &result.Text
}

// Budget scales with input length: ratio of the word count, clamped.
func (uc *SummarizeUseCase) Budget(text string) domain.LengthBudget {
	words := len(strings.Fields(text))
	target := int(math.Round(float64(words) * uc.opts.Ratio))
	target = min(max(target, uc.opts.MinWords), uc.opts.MaxWords)
	return domain.LengthBudget{MinWords: max(target/2, 1), MaxWords: target}
}

func (uc *SummarizeUseCase) cleanup(summary string) string {
	out := strings.TrimSpace(summary)
	for {
		stripped := labelPattern.ReplaceAllString(preamblePattern.ReplaceAllString(out, ""), "")
		if stripped == out {
			break
		}
		out = stripped
	}
	out = bulletPattern.ReplaceAllString(out, "")
	out = strings.Join(strings.Fields(out), " ")
	if out == "" {
		return ""
	}

	sentences := SplitSentences(out)
	if len(sentences) > uc.opts.OutputSentences {
		out = strings.Join(sentences[:uc.opts.OutputSentences], " ")
	}
	return ensureTerminal(out)
}

func (uc *SummarizeUseCase) excerpt(text string) string {
	lines := make([]string, 0, uc.opts.FallbackLines)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == uc.opts.FallbackLines {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// SplitSentences breaks after ., !, ? or the Devanagari danda when followed
// by whitespace. Fragments are trimmed; empty ones dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	out := []string{}
	start := 0
	for i, r := range runes {
		if !isSentenceEnd(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}

func ensureTerminal(text string) string {
	runes := []rune(text)
	if len(runes) == 0 || isSentenceEnd(runes[len(runes)-1]) {
		return text
	}
	return text + "."
}
