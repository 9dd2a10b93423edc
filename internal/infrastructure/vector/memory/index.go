package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// Index is a flat in-process L2 index. Appends take the write lock; searches
// share the read lock. The first appended vector fixes the dimension.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []domain.IndexEntry
}

func NewIndex() *Index {
	return &Index{}
}

func (i *Index) Append(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	dim := i.dim
	for n, entry := range entries {
		if len(entry.Vector) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "index append", fmt.Errorf("entry %d has an empty vector", n))
		}
		if dim == 0 {
			dim = len(entry.Vector)
		}
		if len(entry.Vector) != dim {
			return domain.WrapError(domain.ErrInvalidInput, "index append",
				fmt.Errorf("entry %d has dimension %d, index expects %d", n, len(entry.Vector), dim))
		}
	}

	i.dim = dim
	for _, entry := range entries {
		entry.Vector = append(domain.Vector(nil), entry.Vector...)
		i.entries = append(i.entries, entry)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, vector domain.Vector, limit int, kind domain.IndexEntryKind) ([]domain.SearchHit, error) {
	if limit <= 0 || len(vector) == 0 {
		return []domain.SearchHit{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.dim != 0 && len(vector) != i.dim {
		return nil, domain.WrapError(domain.ErrInvalidInput, "index search",
			fmt.Errorf("query has dimension %d, index expects %d", len(vector), i.dim))
	}

	hits := make([]domain.SearchHit, 0, len(i.entries))
	for _, entry := range i.entries {
		if kind != "" && entry.Kind != kind {
			continue
		}
		hits = append(hits, domain.SearchHit{Entry: entry, Distance: l2(vector, entry.Vector)})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stable keeps insertion order among equal distances.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (i *Index) Len(context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

func l2(a, b domain.Vector) float64 {
	var sum float64
	for n := range a {
		d := float64(a[n]) - float64(b[n])
		sum += d * d
	}
	return math.Sqrt(sum)
}
