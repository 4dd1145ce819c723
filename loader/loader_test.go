package loader

import (
	"context"
	"testing"

	"github.com/krira-ai/ragcore"
)

func TestLoadAndChunkCSVProducesOneChunkPerRow(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "data.csv", "name,age\nAda,36\nGrace,85\n")
	l := New(dir)

	chunks, err := l.LoadAndChunk(context.Background(), SourceCSV, ChunkingOptions{ChunkSize: 1000, ChunkOverlap: 200}, "data.csv", nil)
	if err != nil {
		t.Fatalf("LoadAndChunk() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (one per CSV row)", len(chunks))
	}
	if chunks[0].Order != 0 || chunks[1].Order != 1 {
		t.Errorf("chunk orders = %d, %d, want 0, 1", chunks[0].Order, chunks[1].Order)
	}
}

func TestLoadAndChunkRejectsUnsupportedSourceType(t *testing.T) {
	l := New(t.TempDir())

	_, err := l.LoadAndChunk(context.Background(), SourceType("xml"), ChunkingOptions{ChunkSize: 100, ChunkOverlap: 10}, "data.xml", nil)
	if err == nil {
		t.Fatal("expected error for unsupported source type")
	}
	if ragcore.KindOf(err) != ragcore.KindValidation {
		t.Errorf("KindOf(err) = %v, want KindValidation", ragcore.KindOf(err))
	}
}

func TestLoadAndChunkRejectsInvalidChunkingOptions(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "data.json", `{"a":1}`)
	l := New(dir)

	_, err := l.LoadAndChunk(context.Background(), SourceJSON, ChunkingOptions{ChunkSize: 0, ChunkOverlap: 0}, "data.json", nil)
	if err == nil {
		t.Fatal("expected error for zero chunk size")
	}
}

func TestLoadAndChunkWebsiteRequiresAtLeastOneURL(t *testing.T) {
	l := New(t.TempDir())

	_, err := l.LoadAndChunk(context.Background(), SourceWebsite, ChunkingOptions{ChunkSize: 1000, ChunkOverlap: 200}, "", []string{"   "})
	if err == nil {
		t.Fatal("expected error when no non-blank URL is supplied")
	}
}

func TestLoadAndChunkNormalizesSourceTypeCase(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "data.json", `{"a":1}`)
	l := New(dir)

	chunks, err := l.LoadAndChunk(context.Background(), SourceType("JSON"), ChunkingOptions{ChunkSize: 1000, ChunkOverlap: 200}, "data.json", nil)
	if err != nil {
		t.Fatalf("LoadAndChunk() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
}
