package loader

import (
	"path/filepath"
	"testing"

	"github.com/krira-ai/ragcore"
)

func TestResolveFilePathAcceptsFileWithinRoot(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "data.csv", "a,b\n1,2\n")
	l := New(dir)

	resolved, err := l.resolveFilePath("data.csv")
	if err != nil {
		t.Fatalf("resolveFilePath() error = %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(dir, "data.csv"))
	if resolved != want {
		t.Errorf("resolveFilePath() = %q, want %q", resolved, want)
	}
}

func TestResolveFilePathRejectsTraversalEscape(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	_, err := l.resolveFilePath("../../etc/passwd")
	if err == nil {
		t.Fatal("expected error for path escaping the upload root")
	}
	if ragcore.KindOf(err) != ragcore.KindForbidden {
		t.Errorf("KindOf(err) = %v, want KindForbidden", ragcore.KindOf(err))
	}
}

func TestResolveFilePathRejectsAbsoluteEscape(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	_, err := l.resolveFilePath("/etc/passwd")
	if err == nil {
		t.Fatal("expected error for absolute path outside the upload root")
	}
	if ragcore.KindOf(err) != ragcore.KindForbidden {
		t.Errorf("KindOf(err) = %v, want KindForbidden", ragcore.KindOf(err))
	}
}

func TestResolveFilePathRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	_, err := l.resolveFilePath("missing.csv")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if ragcore.KindOf(err) != ragcore.KindNotFound {
		t.Errorf("KindOf(err) = %v, want KindNotFound", ragcore.KindOf(err))
	}
}

func TestResolveFilePathRejectsEmptyPath(t *testing.T) {
	l := New(t.TempDir())

	if _, err := l.resolveFilePath(""); err == nil {
		t.Fatal("expected error for empty file path")
	}
}
