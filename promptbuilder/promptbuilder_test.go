package promptbuilder

import (
	"strings"
	"testing"
)

func TestBuildContextWindowEmptyYieldsFallback(t *testing.T) {
	if got := BuildContextWindow(nil); got != noExternalDocs {
		t.Errorf("BuildContextWindow(nil) = %q, want %q", got, noExternalDocs)
	}
}

func TestBuildContextWindowDedupesPreservingOrder(t *testing.T) {
	hits := []Hit{{Text: " same "}, {Text: "different"}, {Text: "same"}, {Text: ""}}
	got := BuildContextWindow(hits)
	want := "same\n\ndifferent"
	if got != want {
		t.Errorf("BuildContextWindow() = %q, want %q", got, want)
	}
}

func TestSystemPromptUsesDefaultWhenEmpty(t *testing.T) {
	got := SystemPrompt("  ")
	if !strings.HasPrefix(got, DefaultSystemPrompt) {
		t.Errorf("SystemPrompt() did not start with default prompt")
	}
	if !strings.Contains(got, "ABSOLUTE GROUNDING REQUIREMENT") {
		t.Errorf("SystemPrompt() missing grounding charter")
	}
}

func TestSystemPromptKeepsOperatorOverride(t *testing.T) {
	got := SystemPrompt("You are a legal assistant.")
	if !strings.HasPrefix(got, "You are a legal assistant.") {
		t.Errorf("SystemPrompt() did not preserve operator override")
	}
}

func TestUserPromptIncludesQuestionAndContext(t *testing.T) {
	got := UserPrompt("What is X?", "ctx")
	if !strings.Contains(got, "Question: What is X?") || !strings.Contains(got, "Context:\nctx") {
		t.Errorf("UserPrompt() = %q missing expected sections", got)
	}
}
