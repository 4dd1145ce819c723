package loader

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
)

func TestMaterializeInlineWritesDecodedContent(t *testing.T) {
	l := New(t.TempDir())
	content := base64.StdEncoding.EncodeToString([]byte("a,b\n1,2\n"))

	path, err := l.MaterializeInline(SourceCSV, content)
	if err != nil {
		t.Fatalf("MaterializeInline() error = %v", err)
	}
	defer os.Remove(path)

	if !strings.HasSuffix(path, ".csv") {
		t.Errorf("path = %q, want .csv extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("file content = %q, want decoded input", data)
	}
}

func TestMaterializeInlineRejectsInvalidBase64(t *testing.T) {
	l := New(t.TempDir())

	if _, err := l.MaterializeInline(SourceJSON, "not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64 content")
	}
}

func TestMaterializeInlineRejectsEmptyContent(t *testing.T) {
	l := New(t.TempDir())

	if _, err := l.MaterializeInline(SourceJSON, ""); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestMaterializeInlineDefaultsExtensionForUnknownType(t *testing.T) {
	l := New(t.TempDir())
	content := base64.StdEncoding.EncodeToString([]byte("hello"))

	path, err := l.MaterializeInline(SourceWebsite, content)
	if err != nil {
		t.Fatalf("MaterializeInline() error = %v", err)
	}
	defer os.Remove(path)

	if !strings.HasSuffix(path, ".dat") {
		t.Errorf("path = %q, want .dat extension for unmapped source type", path)
	}
}
