// Package vectorstore implements the vector store adapter (C4): a
// dataset-scoped upsert/query surface over two backend kinds, a
// managed serverless index and a local persistent store.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/krira-ai/ragcore"
)

// Backend is the closed set of vector store backend kinds.
type Backend string

const (
	BackendManaged Backend = "pinecone"
	BackendLocal   Backend = "chroma"
)

// MetadataTextLimit caps the chunk text copied into vector metadata,
// matching original_source's vectorstores.py truncation.
const MetadataTextLimit = 4096

// Vector is one embedded chunk pending upsert.
type Vector struct {
	ChunkOrder int
	Values     []float32
	Text       string
}

// DatasetInfo carries the dataset-level fields written into vector
// metadata alongside every chunk.
type DatasetInfo struct {
	ID         string
	Label      string
	SourceType string
}

// Config is the backend-specific connection configuration accepted
// from a pipeline's embedding.vector_store_config. The managed backend
// reads IndexName and Namespace; neither backend reads APIKey or
// StoreDir.
type Config struct {
	// Managed backend (Qdrant stands in for the original Pinecone contract).
	APIKey    string
	IndexName string
	Namespace string

	// Local backend.
	StoreDir string
}

// Hit is a single similarity-search result.
type Hit struct {
	Text     string
	Score    *float64
	Metadata map[string]string
}

// Store is the C4 contract: upsert and query vectors against either
// backend kind.
type Store interface {
	Upsert(ctx context.Context, backend Backend, dataset DatasetInfo, vectors []Vector, model string, cfg Config) (int, error)
	Query(ctx context.Context, backend Backend, queryVector []float32, model string, topK int, cfg Config, datasetIDs []string) ([]Hit, error)
	Close() error
}

func clampTopK(topK int) int {
	switch {
	case topK < 1:
		return 1
	case topK > 200:
		return 200
	default:
		return topK
	}
}

func truncateText(s string) string {
	r := []rune(s)
	if len(r) <= MetadataTextLimit {
		return s
	}
	return string(r[:MetadataTextLimit])
}

// pointID derives the deterministic vector identity from (dataset,
// chunk order), folding an optional namespace in as a prefix so the
// same chunk written under different namespaces gets distinct ids.
// Queries are not filtered by namespace.
func pointID(namespace, datasetID string, chunkOrder int) string {
	if namespace != "" {
		return fmt.Sprintf("%s::%s::%d", namespace, datasetID, chunkOrder)
	}
	return fmt.Sprintf("%s::%d", datasetID, chunkOrder)
}

// collectionName derives the local backend's table-per-model
// collection name: krira__<model> with '-' replaced by '_'.
func collectionName(model string) string {
	sanitized := make([]rune, 0, len(model))
	for _, r := range model {
		if r == '-' {
			sanitized = append(sanitized, '_')
		} else {
			sanitized = append(sanitized, r)
		}
	}
	return "krira__" + string(sanitized)
}

func metadataFor(ds DatasetInfo, model string, chunkOrder int, text string) map[string]string {
	return map[string]string{
		"dataset_id":      ds.ID,
		"dataset_label":   ds.Label,
		"dataset_type":    ds.SourceType,
		"chunk_order":     fmt.Sprintf("%d", chunkOrder),
		"embedding_model": model,
		"chunk_text":      truncateText(text),
	}
}

// Router dispatches to the managed or local backend implementation
// based on the caller-supplied backend kind.
type Router struct {
	managed *ManagedStore
	local   *LocalStore
}

// New wires both backend implementations behind a single Store.
func New(managed *ManagedStore, local *LocalStore) *Router {
	return &Router{managed: managed, local: local}
}

func (r *Router) Upsert(ctx context.Context, backend Backend, dataset DatasetInfo, vectors []Vector, model string, cfg Config) (int, error) {
	switch backend {
	case BackendManaged:
		if r.managed == nil {
			return 0, ragcore.NewError(ragcore.KindServiceConfig, "managed vector store backend is not configured")
		}
		return r.managed.Upsert(ctx, dataset, vectors, model, cfg)
	case BackendLocal:
		if r.local == nil {
			return 0, ragcore.NewError(ragcore.KindServiceConfig, "local vector store backend is not configured")
		}
		return r.local.Upsert(ctx, dataset, vectors, model, cfg)
	default:
		return 0, ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("unsupported vector store backend %q", backend))
	}
}

func (r *Router) Query(ctx context.Context, backend Backend, queryVector []float32, model string, topK int, cfg Config, datasetIDs []string) ([]Hit, error) {
	topK = clampTopK(topK)
	switch backend {
	case BackendManaged:
		if r.managed == nil {
			return nil, ragcore.NewError(ragcore.KindServiceConfig, "managed vector store backend is not configured")
		}
		return r.managed.Query(ctx, queryVector, model, topK, cfg, datasetIDs)
	case BackendLocal:
		if r.local == nil {
			return nil, ragcore.NewError(ragcore.KindServiceConfig, "local vector store backend is not configured")
		}
		return r.local.Query(ctx, queryVector, model, topK, cfg, datasetIDs)
	default:
		return nil, ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("unsupported vector store backend %q", backend))
	}
}

func (r *Router) Close() error {
	var err error
	if r.local != nil {
		if e := r.local.Close(); e != nil {
			err = e
		}
	}
	if r.managed != nil {
		if e := r.managed.Close(); e != nil {
			err = e
		}
	}
	return err
}
