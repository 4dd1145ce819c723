package ragcore

// Pipeline is the opaque-to-the-core configuration handed back by the
// key-verification collaborator alongside a verified API key. Chat,
// ingest, and evaluation all consume the same shape.
type Pipeline struct {
	ID string

	LLM       LLMConfig
	Embedding EmbeddingConfig
}

// LLMConfig is a pipeline's answering-model configuration.
type LLMConfig struct {
	Provider     string
	Model        string
	SystemPrompt string
	TopK         int
}

// EmbeddingConfig is a pipeline's retrieval configuration: which
// embedding model and vector store back its datasets.
type EmbeddingConfig struct {
	VectorStore       string
	Model             string
	Dimension         int
	DatasetIDs        []string
	VectorStoreConfig VectorStoreConfig
}

// VectorStoreConfig carries the backend-specific connection details
// from the pipeline's embedding.vector_store_config, aliased
// "pineconeConfig" on the wire for collaborator-contract compatibility.
type VectorStoreConfig struct {
	APIKey    string
	IndexName string
	Namespace string
	StoreDir  string
}

// HasRetrieval reports whether the pipeline is configured to retrieve
// context at all: non-empty dataset_ids plus both an embedding model
// and a vector store.
func (p Pipeline) HasRetrieval() bool {
	return len(p.Embedding.DatasetIDs) > 0 &&
		p.Embedding.Model != "" &&
		p.Embedding.VectorStore != ""
}
