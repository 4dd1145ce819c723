// Package ingest implements the ingestion orchestrator (C8): loading,
// embedding, and upserting each dataset in a request independently so
// a failure in one dataset never aborts its siblings.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/embedding"
	"github.com/krira-ai/ragcore/loader"
	"github.com/krira-ai/ragcore/vectorstore"
)

// Orchestrator wires the loader, embedding service, and vector store
// behind the per-dataset ingest contract.
type Orchestrator struct {
	loader   *loader.Loader
	embedder *embedding.Service
	store    vectorstore.Store
}

// New wires the C2/C3/C4 dependencies behind an ingest Orchestrator.
func New(l *loader.Loader, embedder *embedding.Service, store vectorstore.Store) *Orchestrator {
	return &Orchestrator{loader: l, embedder: embedder, store: store}
}

// Dataset is one dataset to ingest in a request.
type Dataset struct {
	ID         string
	Label      string
	SourceType loader.SourceType
	FilePath   string
	URLs       []string
	Chunking   loader.ChunkingOptions

	EmbeddingModel string
	Dimension      int
	VectorStore    vectorstore.Backend
	VectorStoreCfg vectorstore.Config
}

// Summary reports a successfully ingested dataset.
type Summary struct {
	DatasetID        string `json:"dataset_id"`
	Label            string `json:"label"`
	VectorStore      string `json:"vector_store"`
	EmbeddingModel   string `json:"embedding_model"`
	ChunksProcessed  int    `json:"chunks_processed"`
	ChunksEmbedded   int    `json:"chunks_embedded"`
}

// Failure reports a dataset that failed to ingest.
type Failure struct {
	DatasetID string `json:"dataset_id"`
	Label     string `json:"label"`
	Message   string `json:"message"`
}

// Result is the C8 response contract: independent success/failure
// lists, one entry per requested dataset.
type Result struct {
	Summaries []Summary `json:"summaries"`
	Errors    []Failure `json:"errors"`
}

// Run ingests each dataset independently, capturing per-dataset
// failures without aborting siblings.
func (o *Orchestrator) Run(ctx context.Context, datasets []Dataset) Result {
	var result Result
	for _, ds := range datasets {
		summary, err := o.ingestOne(ctx, ds)
		if err != nil {
			slog.Warn("ingest: dataset failed", "dataset_id", ds.ID, "label", ds.Label, "error", err)
			result.Errors = append(result.Errors, Failure{
				DatasetID: ds.ID,
				Label:     ds.Label,
				Message:   ragcore.SafeMessage(err),
			})
			continue
		}
		result.Summaries = append(result.Summaries, *summary)
	}
	return result
}

func (o *Orchestrator) ingestOne(ctx context.Context, ds Dataset) (*Summary, error) {
	chunks, err := o.loader.LoadAndChunk(ctx, ds.SourceType, ds.Chunking, ds.FilePath, ds.URLs)
	if err != nil {
		return nil, err
	}

	nonEmpty := chunks[:0:0]
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Text == "" {
			continue
		}
		nonEmpty = append(nonEmpty, c)
		texts = append(texts, c.Text)
	}

	embeddings, err := o.embedder.Embed(ctx, ds.EmbeddingModel, texts, ds.Dimension)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(nonEmpty) {
		return nil, ragcore.NewError(ragcore.KindInternal,
			fmt.Sprintf("embedded %d vectors for %d chunks", len(embeddings), len(nonEmpty)))
	}

	vectors := make([]vectorstore.Vector, len(nonEmpty))
	for i, c := range nonEmpty {
		vectors[i] = vectorstore.Vector{ChunkOrder: c.Order, Values: embeddings[i], Text: c.Text}
	}

	upserted, err := o.store.Upsert(ctx, ds.VectorStore,
		vectorstore.DatasetInfo{ID: ds.ID, Label: ds.Label, SourceType: string(ds.SourceType)},
		vectors, ds.EmbeddingModel, ds.VectorStoreCfg)
	if err != nil {
		return nil, err
	}

	return &Summary{
		DatasetID:       ds.ID,
		Label:           ds.Label,
		VectorStore:     string(ds.VectorStore),
		EmbeddingModel:  ds.EmbeddingModel,
		ChunksProcessed: len(chunks),
		ChunksEmbedded:  upserted,
	}, nil
}
