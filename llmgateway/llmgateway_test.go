package llmgateway

import "testing"

func TestValidateProviderAcceptsKnownTag(t *testing.T) {
	p, err := ValidateProvider(" OpenAI ")
	if err != nil {
		t.Fatalf("ValidateProvider() error = %v", err)
	}
	if p != ProviderOpenAI {
		t.Errorf("ValidateProvider() = %q, want %q", p, ProviderOpenAI)
	}
}

func TestValidateProviderRejectsUnknownTag(t *testing.T) {
	if _, err := ValidateProvider("not-a-provider"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestListModelsSortedWithinProvider(t *testing.T) {
	options := ListModels()
	if len(options) != len(providerMetadata) {
		t.Fatalf("got %d providers, want %d", len(options), len(providerMetadata))
	}
	for _, opt := range options {
		for i := 1; i < len(opt.Models); i++ {
			if opt.Models[i-1].ID > opt.Models[i].ID {
				t.Errorf("provider %s models not sorted: %v", opt.Provider, opt.Models)
			}
		}
	}
}

func TestNormalizeUsageCoercesMixedTypes(t *testing.T) {
	raw := map[string]interface{}{
		"prompt_tokens":     10,
		"completion_tokens": nil,
		"total_tokens":      "42",
		"input_tokens":      true,
		"output_tokens":     12.7,
		"cached_tokens":     5,
	}
	normalized, metadata := NormalizeUsage(raw)

	want := map[string]int{
		"prompt_tokens":     10,
		"completion_tokens": 0,
		"total_tokens":      42,
		"input_tokens":      0,
		"output_tokens":     12,
	}
	for k, v := range want {
		if normalized[k] != v {
			t.Errorf("normalized[%q] = %d, want %d", k, normalized[k], v)
		}
	}
	if metadata["cached_tokens"] != 5 {
		t.Errorf("metadata[cached_tokens] = %v, want 5", metadata["cached_tokens"])
	}
}

func TestNormalizeUsageDefaultsAbsentKeysToZero(t *testing.T) {
	normalized, _ := NormalizeUsage(nil)
	for key := range tokenUsageKeys {
		if normalized[key] != 0 {
			t.Errorf("normalized[%q] = %d, want 0", key, normalized[key])
		}
	}
}
