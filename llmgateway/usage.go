package llmgateway

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// tokenUsageKeys are the numeric usage fields that get coerced to int;
// everything else in a usage payload passes through as metadata.
var tokenUsageKeys = map[string]struct{}{
	"prompt_tokens":     {},
	"completion_tokens": {},
	"total_tokens":      {},
	"input_tokens":      {},
	"output_tokens":     {},
}

// NormalizeUsage coerces a raw provider usage payload's numeric fields
// to int, defaulting absent or malformed values to zero, and returns
// any other keys untouched as metadata. Matches original_source's
// normalize_usage/_coerce_usage_value exactly.
func NormalizeUsage(raw map[string]interface{}) (map[string]int, map[string]interface{}) {
	normalized := make(map[string]int, len(tokenUsageKeys))
	metadata := make(map[string]interface{})

	for key, value := range raw {
		if _, ok := tokenUsageKeys[key]; ok {
			normalized[key] = coerceUsageValue(value, key)
		} else {
			metadata[key] = value
		}
	}

	for key := range tokenUsageKeys {
		if _, ok := normalized[key]; !ok {
			normalized[key] = 0
		}
	}

	return normalized, metadata
}

func coerceUsageValue(value interface{}, field string) int {
	switch v := value.(type) {
	case nil:
		slog.Warn("llmgateway: token usage field is nil, coercing to 0", "field", field)
		return 0
	case bool:
		slog.Warn("llmgateway: token usage field is boolean, coercing to 0", "field", field, "value", v)
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		slog.Warn("llmgateway: token usage field is float, truncating to int", "field", field, "value", v)
		return int(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			slog.Warn("llmgateway: token usage field string is invalid, coercing to 0", "field", field, "value", v)
			return 0
		}
		slog.Warn("llmgateway: token usage field is string, parsed to int", "field", field, "value", v, "parsed", parsed)
		return int(parsed)
	default:
		slog.Warn("llmgateway: token usage field has unsupported type, coercing to 0", "field", field)
		return 0
	}
}
