package loader

import (
	"strings"
	"testing"
)

func TestSchemeCandidatesTriesSuppliedSchemeFirst(t *testing.T) {
	got := schemeCandidates("https://example.com")
	want := []string{"https://example.com", "http://example.com"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("schemeCandidates()[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestSchemeCandidatesFallsBackFromHTTP(t *testing.T) {
	got := schemeCandidates("http://example.com")
	want := []string{"http://example.com", "https://example.com"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("schemeCandidates()[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestSchemeCandidatesPrependsBothWhenSchemeless(t *testing.T) {
	got := schemeCandidates("example.com")
	want := []string{"https://example.com", "http://example.com"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("schemeCandidates()[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestVisibleTextSkipsScriptAndStyle(t *testing.T) {
	html := `<html><head><style>.a{color:red}</style></head>
<body><script>alert(1)</script><p>Hello world</p></body></html>`

	text, err := visibleText(strings.NewReader(html))
	if err != nil {
		t.Fatalf("visibleText() error = %v", err)
	}
	if !strings.Contains(text, "Hello world") {
		t.Errorf("visibleText() = %q, want to contain visible paragraph text", text)
	}
	if strings.Contains(text, "alert(1)") || strings.Contains(text, "color:red") {
		t.Errorf("visibleText() = %q, should not contain script/style content", text)
	}
}
