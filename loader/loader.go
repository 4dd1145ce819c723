// Package loader implements the dataset loader (C2): reading CSV,
// JSON, PDF, and website sources and producing ordered chunk
// sequences honoring a chunk-size/overlap policy.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/krira-ai/ragcore"
)

// SourceType is the closed set of dataset source types.
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceJSON    SourceType = "json"
	SourceWebsite SourceType = "website"
	SourcePDF     SourceType = "pdf"
)

func (t SourceType) valid() bool {
	switch t {
	case SourceCSV, SourceJSON, SourceWebsite, SourcePDF:
		return true
	}
	return false
}

// Chunk is a single ordered piece of dataset text.
type Chunk struct {
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// ChunkingOptions controls the character-window chunker.
type ChunkingOptions struct {
	ChunkSize    int
	ChunkOverlap int
}

// Validate enforces chunk_overlap < chunk_size, chunk_size > 0.
func (o ChunkingOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return ragcore.NewError(ragcore.KindValidation, "chunk size must be greater than zero")
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return ragcore.NewError(ragcore.KindValidation, "chunk overlap must be non-negative and less than chunk size")
	}
	return nil
}

// Loader reads datasets from an allow-listed upload root and chunks
// their content.
type Loader struct {
	uploadRoot string
}

// New returns a Loader rooted at uploadRoot. Relative file paths
// resolve against this directory; resolved paths outside it fail
// closed (C2 path safety).
func New(uploadRoot string) *Loader {
	return &Loader{uploadRoot: uploadRoot}
}

// LoadAndChunk dispatches on sourceType and returns the ordered chunk
// sequence for the dataset. filePath is required for csv/json/pdf;
// urls is required for website.
func (l *Loader) LoadAndChunk(ctx context.Context, sourceType SourceType, opts ChunkingOptions, filePath string, urls []string) ([]Chunk, error) {
	st := SourceType(strings.ToLower(strings.TrimSpace(string(sourceType))))
	if !st.valid() {
		return nil, ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("unsupported dataset type: %s", sourceType))
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if st == SourceWebsite {
		filtered := filterNonEmpty(urls)
		if len(filtered) == 0 {
			return nil, ragcore.NewError(ragcore.KindValidation, "at least one URL is required for website datasets")
		}
		text, err := loadFromURLs(ctx, filtered)
		if err != nil {
			return nil, err
		}
		return chunkText(text, opts)
	}

	resolved, err := l.resolveFilePath(filePath)
	if err != nil {
		return nil, err
	}

	switch st {
	case SourceCSV:
		rows, err := loadCSV(resolved)
		if err != nil {
			return nil, err
		}
		return rowsToChunks(rows), nil
	case SourceJSON:
		text, err := loadJSON(resolved)
		if err != nil {
			return nil, err
		}
		return chunkText(text, opts)
	case SourcePDF:
		text, err := loadPDF(resolved)
		if err != nil {
			return nil, err
		}
		return chunkText(text, opts)
	}
	return nil, ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("unsupported dataset type: %s", sourceType))
}

func filterNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		t := strings.TrimSpace(s)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
