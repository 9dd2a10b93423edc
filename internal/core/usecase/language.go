package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

type LanguageService struct {
	identifier ports.LanguageIdentifier
}

func NewLanguageService(identifier ports.LanguageIdentifier) *LanguageService {
	return &LanguageService{identifier: identifier}
}

// Detect maps identifier failures to LanguageUnknown, which callers treat
// as "do not translate".
func (s *LanguageService) Detect(_ context.Context, text string) domain.LanguageTag {
	if strings.TrimSpace(text) == "" || s.identifier == nil {
		return domain.LanguageUnknown
	}
	code, err := s.identifier.Identify(text)
	if err != nil {
		slog.Warn("language_detection_failed", "error", err)
		return domain.LanguageUnknown
	}
	return domain.ParseLanguageTag(code)
}

type Translator struct {
	service  ports.TranslationService
	chunker  ports.Chunker
	observer ports.StageObserver
}

func NewTranslator(service ports.TranslationService, chunker ports.Chunker, observer ports.StageObserver) *Translator {
	return &Translator{service: service, chunker: chunker, observer: observer}
}

func (t *Translator) ToEnglish(ctx context.Context, text string, source domain.LanguageTag) domain.TranslationResult {
	return t.Translate(ctx, text, source, domain.LanguageEnglish)
}

// Translate is best effort. Any failure returns the input text untouched
// with Translated=false.
func (t *Translator) Translate(ctx context.Context, text string, source, target domain.LanguageTag) domain.TranslationResult {
	fallback := domain.TranslationResult{Text: text, Source: source, Target: target}
	if strings.TrimSpace(text) == "" || t.service == nil || source == target {
		return fallback
	}

	src := string(source)
	if source == domain.LanguageUnknown {
		src = ""
	}

	pieces := []string{text}
	if t.chunker != nil {
		if split := t.chunker.Split(text); len(split) > 0 {
			pieces = split
		}
	}

	out := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		translated, err := t.service.Translate(ctx, piece, src, string(target))
		if err != nil || strings.TrimSpace(translated) == "" {
			slog.Warn("translation_fallback",
				"source", source,
				"target", target,
				"error", err,
			)
			if t.observer != nil {
				t.observer.ObserveTranslationFallback(string(source) + "->" + string(target))
			}
			return fallback
		}
		out = append(out, strings.TrimSpace(translated))
	}

	return domain.TranslationResult{
		Text:       strings.Join(out, " "),
		Translated: true,
		Source:     source,
		Target:     target,
	}
}
