package loader

import (
	"strings"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/sanitize"
)

// chunkText applies the exact character-window chunker to text:
// starting at start=0, emit S[start:min(start+size,len(S))] trimmed;
// advance start = end - overlap; terminate once end >= len(S).
// Consecutive chunks share exactly chunk_overlap trailing/leading
// characters, modulo boundary trimming.
func chunkText(text string, opts ChunkingOptions) ([]Chunk, error) {
	sanitized := sanitize.Text(text)
	if sanitized == "" {
		return nil, ragcore.NewError(ragcore.KindUnprocessable, "no textual content available for chunking")
	}

	runes := []rune(sanitized)
	var chunks []Chunk
	start := 0
	order := 0
	length := len(runes)

	for start < length {
		end := start + opts.ChunkSize
		if end > length {
			end = length
		}
		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, Chunk{Order: order, Text: text})
			order++
		}
		if end >= length {
			break
		}
		start = end - opts.ChunkOverlap
		if start < 0 {
			start = 0
		}
	}

	if len(chunks) == 0 {
		return nil, ragcore.NewError(ragcore.KindUnprocessable, "no textual content available for chunking")
	}
	return chunks, nil
}

// rowsToChunks converts structured CSV rows (already formatted text)
// into discrete chunks preserving row boundaries — the character
// window chunker is never applied to CSV rows.
func rowsToChunks(rows []string) []Chunk {
	chunks := make([]Chunk, 0, len(rows))
	for _, row := range rows {
		sanitized := sanitize.Text(row)
		if sanitized == "" {
			continue
		}
		chunks = append(chunks, Chunk{Order: len(chunks), Text: sanitized})
	}
	return chunks
}
