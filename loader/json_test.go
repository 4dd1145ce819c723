package loader

import (
	"strings"
	"testing"
)

func TestLoadJSONFlattensNestedStructure(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "data.json", `{"a":{"b":1},"c":[10,20]}`)

	text, err := loadJSON(path)
	if err != nil {
		t.Fatalf("loadJSON() error = %v", err)
	}
	for _, want := range []string{"a.b: 1", "c[0]: 10", "c[1]: 20"} {
		if !strings.Contains(text, want) {
			t.Errorf("loadJSON() = %q, want substring %q", text, want)
		}
	}
}

func TestLoadJSONSortsObjectKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "data.json", `{"z":1,"a":2}`)

	text, err := loadJSON(path)
	if err != nil {
		t.Fatalf("loadJSON() error = %v", err)
	}
	lines := strings.Split(text, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a:") || !strings.HasPrefix(lines[1], "z:") {
		t.Errorf("loadJSON() lines = %v, want sorted a before z", lines)
	}
}

func TestLoadJSONRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "data.json", `{not valid json`)

	if _, err := loadJSON(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadJSONRejectsEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "data.json", `{}`)

	if _, err := loadJSON(path); err == nil {
		t.Fatal("expected error for JSON with no extractable leaves")
	}
}
