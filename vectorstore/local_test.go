//go:build cgo

package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/krira-ai/ragcore"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "vectors"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalStoreUpsertAndQuery(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	ds := DatasetInfo{ID: "ds-1", Label: "Docs", SourceType: "csv"}
	vectors := []Vector{
		{ChunkOrder: 0, Values: []float32{1, 0, 0, 0}, Text: "alpha"},
		{ChunkOrder: 1, Values: []float32{0, 1, 0, 0}, Text: "beta"},
	}

	n, err := s.Upsert(ctx, ds, vectors, "openai-small", Config{})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Upsert() wrote %d vectors, want 2", n)
	}

	hits, err := s.Query(ctx, []float32{1, 0, 0, 0}, "openai-small", 1, Config{}, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Query() returned %d hits, want 1", len(hits))
	}
	if hits[0].Text != "alpha" {
		t.Errorf("Query() top hit text = %q, want %q", hits[0].Text, "alpha")
	}
}

func TestLocalStoreUpsertRejectsDimensionMismatch(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	ds := DatasetInfo{ID: "ds-1"}
	vectors := []Vector{
		{ChunkOrder: 0, Values: []float32{1, 0, 0, 0}, Text: "alpha"},
		{ChunkOrder: 1, Values: []float32{0, 1}, Text: "beta"},
	}

	_, err := s.Upsert(ctx, ds, vectors, "openai-small", Config{})
	if err == nil {
		t.Fatal("expected error for mismatched embedding dimension")
	}
	if ragcore.KindOf(err) != ragcore.KindValidation {
		t.Errorf("KindOf(err) = %v, want KindValidation", ragcore.KindOf(err))
	}
}

func TestLocalStoreUpsertReplacesByDataset(t *testing.T) {
	s := newTestLocalStore(t)
	ctx := context.Background()

	ds := DatasetInfo{ID: "ds-1"}
	first := []Vector{{ChunkOrder: 0, Values: []float32{1, 0}, Text: "old"}}
	if _, err := s.Upsert(ctx, ds, first, "openai-small", Config{}); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}

	second := []Vector{{ChunkOrder: 0, Values: []float32{1, 0}, Text: "new"}}
	if _, err := s.Upsert(ctx, ds, second, "openai-small", Config{}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	hits, err := s.Query(ctx, []float32{1, 0}, "openai-small", 10, Config{}, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Query() returned %d hits, want 1 after replace", len(hits))
	}
	if hits[0].Text != "new" {
		t.Errorf("Query() hit text = %q, want %q (stale vector not replaced)", hits[0].Text, "new")
	}
}

func TestLocalStoreQueryMissingCollectionReturnsNoHits(t *testing.T) {
	s := newTestLocalStore(t)

	hits, err := s.Query(context.Background(), []float32{1, 0}, "never-embedded", 10, Config{}, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if hits != nil {
		t.Errorf("Query() = %v, want nil for a collection that was never created", hits)
	}
}

func TestEnsureCollectionRejectsInvalidName(t *testing.T) {
	s := newTestLocalStore(t)

	err := s.ensureCollection("bad name!", 4)
	if err == nil {
		t.Fatal("expected error for collection name with invalid characters")
	}
	if ragcore.KindOf(err) != ragcore.KindValidation {
		t.Errorf("KindOf(err) = %v, want KindValidation", ragcore.KindOf(err))
	}
}
