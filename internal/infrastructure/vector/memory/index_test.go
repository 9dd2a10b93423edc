package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func entry(id string, kind domain.IndexEntryKind, v ...float32) domain.IndexEntry {
	return domain.IndexEntry{ID: id, Kind: kind, Vector: v}
}

func TestSearchOrdersByDistanceAndFiltersKind(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	err := idx.Append(ctx, []domain.IndexEntry{
		entry("far", domain.EntryDocument, 10, 10),
		entry("near", domain.EntryDocument, 1, 1),
		entry("query", domain.EntryQuery, 0, 0),
		entry("tie", domain.EntryDocument, 1, 1),
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	hits, err := idx.Search(ctx, domain.Vector{0, 0}, 2, domain.EntryDocument)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].Entry.ID != "near" || hits[1].Entry.ID != "tie" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits[0].Distance < 1.41 || hits[0].Distance > 1.42 {
		t.Fatalf("unexpected distance %v", hits[0].Distance)
	}

	all, _ := idx.Search(ctx, domain.Vector{0, 0}, 10, "")
	if len(all) != 4 || all[0].Entry.ID != "query" {
		t.Fatalf("unfiltered search = %+v", all)
	}
}

func TestAppendRejectsDimensionMismatch(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	if err := idx.Append(ctx, []domain.IndexEntry{entry("a", domain.EntryDocument, 1, 2, 3)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	err := idx.Append(ctx, []domain.IndexEntry{entry("b", domain.EntryDocument, 1, 2, 3), entry("c", domain.EntryDocument, 1)})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if n, _ := idx.Len(ctx); n != 1 {
		t.Fatalf("failed batch must not be partially applied, len = %d", n)
	}
	if _, err := idx.Search(ctx, domain.Vector{1}, 1, ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected query dimension error, got %v", err)
	}
}

func TestConcurrentAppendAndSearch(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = idx.Append(ctx, []domain.IndexEntry{entry("x", domain.EntryDocument, 1, 2)})
		}()
		go func() {
			defer wg.Done()
			_, _ = idx.Search(ctx, domain.Vector{1, 2}, 5, domain.EntryDocument)
		}()
	}
	wg.Wait()

	if n, _ := idx.Len(ctx); n != 20 {
		t.Fatalf("Len() = %d, want 20", n)
	}
}
