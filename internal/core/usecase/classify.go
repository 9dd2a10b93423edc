package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const DefaultKeywordBoost = 0.2

type ClassifyUseCase struct {
	taxonomy     domain.Taxonomy
	model        ports.ZeroShotClassifier
	boost        float64
	ruleFallback bool
}

type ClassifyOptions struct {
	Boost float64
	// RuleFallback turns a model failure into a rule-only result instead of
	// an error. With no rule match the result is Unknown.
	RuleFallback bool
}

func NewClassifyUseCase(taxonomy domain.Taxonomy, model ports.ZeroShotClassifier, opts ClassifyOptions) *ClassifyUseCase {
	boost := opts.Boost
	if boost <= 0 {
		boost = DefaultKeywordBoost
	}
	return &ClassifyUseCase{
		taxonomy:     taxonomy,
		model:        model,
		boost:        boost,
		ruleFallback: opts.RuleFallback,
	}
}

func (uc *ClassifyUseCase) Classify(ctx context.Context, text string) (domain.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.UnknownClassification(), nil
	}

	matched := uc.MatchKeywords(text)

	scores, err := uc.model.Classify(ctx, text, uc.taxonomy.Labels())
	if err == nil && len(scores.Labels) != len(scores.Scores) {
		err = fmt.Errorf("labels/scores mismatch: %d/%d", len(scores.Labels), len(scores.Scores))
	}
	if err == nil && len(scores.Labels) == 0 {
		err = errors.New("empty label set")
	}
	if err != nil {
		if uc.ruleFallback && ctx.Err() == nil {
			slog.Warn("classifier_rule_fallback", "matched_department", matched, "error", err)
			return uc.ruleOnly(matched), nil
		}
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrClassification, "zero-shot classify", err)
	}

	return uc.fuse(scores, matched), nil
}

// MatchKeywords returns the first department, in taxonomy order, with any
// keyword contained in the lower-cased text.
func (uc *ClassifyUseCase) MatchKeywords(text string) string {
	lower := strings.ToLower(text)
	for _, dept := range uc.taxonomy.Departments {
		for _, kw := range dept.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return dept.Name
			}
		}
	}
	return ""
}

func (uc *ClassifyUseCase) fuse(scores domain.LabelScores, matched string) domain.ClassificationResult {
	labels := append([]string(nil), scores.Labels...)
	values := append([]float64(nil), scores.Scores...)

	result := domain.ClassificationResult{
		Labels:            labels,
		Scores:            values,
		MatchedDepartment: matched,
		Method:            domain.MethodHybrid,
	}

	if matched != "" {
		idx := indexOf(labels, matched)
		if idx < 0 {
			slog.Warn("classifier_boost_label_missing", "matched_department", matched)
		} else {
			values[idx] += uc.boost
			result.Boosted = true
		}
	}

	result.PrimaryDepartment = labels[domain.ArgMax(values)]
	return result
}

func (uc *ClassifyUseCase) ruleOnly(matched string) domain.ClassificationResult {
	if matched == "" {
		result := domain.UnknownClassification()
		result.Method = domain.MethodRules
		return result
	}
	return domain.ClassificationResult{
		PrimaryDepartment: matched,
		Labels:            []string{matched},
		Scores:            []float64{uc.boost},
		MatchedDepartment: matched,
		Boosted:           true,
		Method:            domain.MethodRules,
	}
}

func indexOf(items []string, target string) int {
	for i, item := range items {
		if item == target {
			return i
		}
	}
	return -1
}
