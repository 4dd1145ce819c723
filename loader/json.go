package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/krira-ai/ragcore"
)

// loadJSON parses an arbitrary nested JSON document and flattens it
// to one line per scalar leaf with a dotted/indexed path, e.g.
// "a.b[0].c: value".
func loadJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to open JSON file", err)
	}

	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", ragcore.Wrap(ragcore.KindUnprocessable, "malformed JSON file", err)
	}

	var lines []string
	flattenJSON(payload, "", &lines)
	if len(lines) == 0 {
		return "", ragcore.NewError(ragcore.KindUnprocessable, "JSON file does not contain extractable data")
	}
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(payload interface{}, prefix string, out *[]string) {
	switch v := payload.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenJSON(v[k], next, out)
		}
	case []interface{}:
		for i, item := range v {
			next := "[" + strconv.Itoa(i) + "]"
			if prefix != "" {
				next = prefix + next
			}
			flattenJSON(item, next, out)
		}
	default:
		*out = append(*out, fmt.Sprintf("%s: %v", prefix, v))
	}
}
