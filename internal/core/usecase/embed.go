package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

const (
	entryPreviewRunes  = 280
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

type EmbedUseCase struct {
	model    ports.EmbeddingModel
	index    ports.SimilarityIndex
	observer ports.StageObserver
}

func NewEmbedUseCase(model ports.EmbeddingModel, index ports.SimilarityIndex, observer ports.StageObserver) *EmbedUseCase {
	return &EmbedUseCase{model: model, index: index, observer: observer}
}

// Embed returns one vector per text, in order, and appends all of them to
// the similarity index. Nothing is deduplicated.
func (uc *EmbedUseCase) Embed(ctx context.Context, texts []string, ref domain.IndexRef) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "embed texts", errors.New("no texts"))
	}

	raw, err := uc.model.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed texts",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(raw), len(texts)),
		)
	}

	now := time.Now().UTC()
	vectors := make([]domain.Vector, len(raw))
	entries := make([]domain.IndexEntry, len(raw))
	for i, v := range raw {
		if len(v) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "embed texts", fmt.Errorf("empty vector at %d", i))
		}
		vectors[i] = domain.Vector(v)
		entries[i] = domain.IndexEntry{
			ID:         uuid.NewString(),
			Kind:       ref.Kind,
			DocumentID: ref.DocumentID,
			Filename:   ref.Filename,
			Text:       preview(texts[i], entryPreviewRunes),
			Vector:     vectors[i],
			CreatedAt:  now,
		}
	}

	if err := uc.index.Append(ctx, entries); err != nil {
		return nil, fmt.Errorf("append to similarity index: %w", err)
	}
	if uc.observer != nil {
		if size, err := uc.index.Len(ctx); err == nil {
			uc.observer.ObserveIndexSize(size)
		}
	}
	return vectors, nil
}

func (uc *EmbedUseCase) EmbedQuery(ctx context.Context, query string) (domain.Vector, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "embed query", errors.New("query is required"))
	}
	vectors, err := uc.Embed(ctx, []string{query}, domain.IndexRef{Kind: domain.EntryQuery})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Search embeds the query (which also lands in the index) and returns the
// nearest document entries.
func (uc *EmbedUseCase) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	vector, err := uc.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := uc.index.Search(ctx, vector, limit, domain.EntryDocument)
	if err != nil {
		return nil, fmt.Errorf("search similarity index: %w", err)
	}
	return hits, nil
}

func preview(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
