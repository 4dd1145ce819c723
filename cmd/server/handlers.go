package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/chatengine"
	"github.com/krira-ai/ragcore/eval"
	"github.com/krira-ai/ragcore/ingest"
	"github.com/krira-ai/ragcore/llmgateway"
	"github.com/krira-ai/ragcore/loader"
	"github.com/krira-ai/ragcore/vectorstore"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type handler struct {
	svc *service
}

func newHandler(svc *service) *handler {
	return &handler{svc: svc}
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pineconeConfigDTO mirrors the key-verification collaborator's
// "pineconeConfig" wire shape, reused here for the internal test and
// evaluate endpoints that accept an explicit vector-store config.
type pineconeConfigDTO struct {
	APIKey    string `json:"apiKey"`
	IndexName string `json:"indexName"`
	Namespace string `json:"namespace"`
}

func (p *pineconeConfigDTO) toConfig() vectorstore.Config {
	if p == nil {
		return vectorstore.Config{}
	}
	return vectorstore.Config{APIKey: p.APIKey, IndexName: p.IndexName, Namespace: p.Namespace}
}

// datasetFileDTO is the common "where does this dataset's content
// come from" shape shared by /uploaddataset and /embed.
type datasetFileDTO struct {
	DatasetType  string   `json:"dataset_type"`
	FilePath     string   `json:"file_path,omitempty"`
	FileContent  string   `json:"file_content,omitempty"`
	URLs         []string `json:"urls,omitempty"`
	ChunkSize    int      `json:"chunk_size,omitempty"`
	ChunkOverlap int      `json:"chunk_overlap,omitempty"`
}

func (d datasetFileDTO) chunking() loader.ChunkingOptions {
	size, overlap := d.ChunkSize, d.ChunkOverlap
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap <= 0 {
		overlap = defaultChunkOverlap
	}
	return loader.ChunkingOptions{ChunkSize: size, ChunkOverlap: overlap}
}

// resolvePath returns the file path to load, materializing inline
// base64 content to a temp file under l's upload root when present.
// The returned cleanup func removes that temp file, or is a no-op
// when the dataset was referenced by path instead.
func resolvePath(l *loader.Loader, d datasetFileDTO) (string, func(), error) {
	noop := func() {}
	if d.FileContent != "" {
		path, err := l.MaterializeInline(loader.SourceType(strings.ToLower(d.DatasetType)), d.FileContent)
		if err != nil {
			return "", noop, err
		}
		return path, func() { os.Remove(path) }, nil
	}
	return d.FilePath, noop, nil
}

// POST /uploaddataset
// C8 preamble: load and chunk a dataset, without embedding or
// upserting it.
func (h *handler) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req datasetFileDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "invalid JSON body"))
		return
	}

	filePath, cleanup, err := resolvePath(h.svc.loader, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer cleanup()

	chunks, err := h.svc.loader.LoadAndChunk(ctx, loader.SourceType(strings.ToLower(req.DatasetType)), req.chunking(), filePath, req.URLs)
	if err != nil {
		slog.Warn("uploaddataset: load failed", "dataset_type", req.DatasetType, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chunks":      chunks,
		"chunk_count": len(chunks),
	})
}

type embedDatasetDTO struct {
	datasetFileDTO
	DatasetID         string             `json:"dataset_id"`
	Label             string             `json:"label"`
	EmbeddingModel    string             `json:"embedding_model"`
	Dimension         int                `json:"dimension,omitempty"`
	VectorStore       string             `json:"vector_store"`
	VectorStoreConfig *pineconeConfigDTO `json:"vector_store_config,omitempty"`
}

// POST /embed
// C8: load, chunk, embed and upsert each dataset. Each dataset names
// its source (file path, inline base64 content, or URLs); the request
// does not carry pre-built chunks.
func (h *handler) handleEmbed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	var req struct {
		Datasets []embedDatasetDTO `json:"datasets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "invalid JSON body"))
		return
	}
	if len(req.Datasets) == 0 {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "at least one dataset is required"))
		return
	}

	datasets := make([]ingest.Dataset, 0, len(req.Datasets))
	var cleanups []func()
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()

	for _, d := range req.Datasets {
		filePath, cleanup, err := resolvePath(h.svc.loader, d.datasetFileDTO)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		cleanups = append(cleanups, cleanup)

		datasets = append(datasets, ingest.Dataset{
			ID:             d.DatasetID,
			Label:          d.Label,
			SourceType:     loader.SourceType(strings.ToLower(d.DatasetType)),
			FilePath:       filePath,
			URLs:           d.URLs,
			Chunking:       d.chunking(),
			EmbeddingModel: d.EmbeddingModel,
			Dimension:      d.Dimension,
			VectorStore:    vectorstore.Backend(d.VectorStore),
			VectorStoreCfg: d.VectorStoreConfig.toConfig(),
		})
	}

	result := h.svc.ingestor.Run(ctx, datasets)
	writeJSON(w, http.StatusOK, result)
}

// GET /api/llm/models
func (h *handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": llmgateway.ListModels()})
}

// pipelineDTO mirrors the internal tooling's existing camelCase
// request shape for the ad hoc (not key-verified) pipeline config
// accepted by /api/llm/test and /api/llm/evaluate.
type pipelineDTO struct {
	Provider           string             `json:"provider"`
	ModelID            string             `json:"modelId"`
	SystemPrompt       string             `json:"systemPrompt"`
	EmbeddingModel     string             `json:"embeddingModel"`
	VectorStore        string             `json:"vectorStore"`
	DatasetIDs         []string           `json:"datasetIds"`
	TopK               int                `json:"topK"`
	EmbeddingDimension int                `json:"embeddingDimension"`
	Pinecone           *pineconeConfigDTO `json:"pinecone"`
}

func (p pipelineDTO) toPipeline() ragcore.Pipeline {
	return ragcore.Pipeline{
		LLM: ragcore.LLMConfig{
			Provider:     p.Provider,
			Model:        p.ModelID,
			SystemPrompt: p.SystemPrompt,
			TopK:         p.TopK,
		},
		Embedding: ragcore.EmbeddingConfig{
			VectorStore: p.VectorStore,
			Model:       p.EmbeddingModel,
			Dimension:   p.EmbeddingDimension,
			DatasetIDs:  p.DatasetIDs,
			VectorStoreConfig: ragcore.VectorStoreConfig{
				APIKey:    valueOr(p.Pinecone, func(c pineconeConfigDTO) string { return c.APIKey }),
				IndexName: valueOr(p.Pinecone, func(c pineconeConfigDTO) string { return c.IndexName }),
				Namespace: valueOr(p.Pinecone, func(c pineconeConfigDTO) string { return c.Namespace }),
			},
		},
	}
}

func valueOr(p *pineconeConfigDTO, f func(pineconeConfigDTO) string) string {
	if p == nil {
		return ""
	}
	return f(*p)
}

// POST /api/llm/test
// C7-style harness: run one chat turn against an explicit pipeline
// config instead of a key-verified one.
func (h *handler) handleTestLLM(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		pipelineDTO
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "question is required"))
		return
	}

	answer, err := h.svc.chat.Answer(ctx, chatengine.Request{Pipeline: req.pipelineDTO.toPipeline(), Question: req.Question})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":           answer.Answer,
		"latency_ms":       answer.LatencyMs,
		"context_snippets": answer.ContextSnippets,
	})
}

// POST /api/llm/evaluate
func (h *handler) handleEvaluateLLM(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	var req struct {
		pipelineDTO
		CSVPath          string `json:"csvPath"`
		CSVContent       string `json:"csvContent"`
		OriginalFilename string `json:"originalFilename"`
		Concurrency      int    `json:"concurrency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "invalid JSON body"))
		return
	}

	var csvFile string
	if req.CSVContent != "" {
		path, err := materializeEvaluationContent(h.svc.cfg.EvaluationRoot, req.CSVContent, req.OriginalFilename)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		defer os.Remove(path)
		csvFile = path
	} else {
		path, err := resolveEvaluationPath(h.svc.cfg.EvaluationRoot, req.CSVPath)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		csvFile = path
	}

	f, err := os.Open(csvFile)
	if err != nil {
		writeServiceError(w, ragcore.Wrap(ragcore.KindInternal, "failed to open evaluation CSV", err))
		return
	}
	defer f.Close()

	rows, err := eval.LoadCSV(f)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	concurrency := req.Concurrency
	if ceiling := h.svc.cfg.EvaluationConcurrency; ceiling > 0 && (concurrency <= 0 || concurrency > ceiling) {
		concurrency = ceiling
	}

	result, err := h.svc.evaluator.Run(ctx, eval.Request{
		Pipeline:    req.pipelineDTO.toPipeline(),
		Rows:        rows,
		Concurrency: concurrency,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// chatRequest is the public /v1/chat request contract.
type chatRequest struct {
	PipelineName   string                 `json:"pipeline_name"`
	Query          string                 `json:"query"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

func (req chatRequest) validate() error {
	if len(req.PipelineName) < 4 {
		return ragcore.NewError(ragcore.KindValidation, "pipeline_name must be at least 4 characters")
	}
	if strings.TrimSpace(req.Query) == "" {
		return ragcore.NewError(ragcore.KindValidation, "query is required")
	}
	if len(req.ConversationID) > 64 {
		return ragcore.NewError(ragcore.KindValidation, "conversation_id must be at most 64 characters")
	}
	return nil
}

// POST /v1/chat
// The only Bearer-authenticated route: the token is an API key
// exchanged for a Pipeline configuration via the key-verification
// collaborator.
func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	apiKey, err := bearerToken(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, ragcore.NewError(ragcore.KindValidation, "invalid JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	pipeline, err := h.svc.keys.Verify(ctx, apiKey, req.PipelineName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	answer, err := h.svc.chat.Answer(ctx, chatengine.Request{
		Pipeline:       *pipeline,
		Question:       req.Query,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.svc.keys.TrackUsage(ctx, apiKey, req.PipelineName, answer.TotalTokens); err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]interface{}{
		"pipeline_name": req.PipelineName,
		"answer":        answer.Answer,
		"latency_ms":    answer.LatencyMs,
	}
	if answer.ConversationID != "" {
		resp["conversation_id"] = answer.ConversationID
	}
	if len(answer.ContextSnippets) > 0 {
		resp["context_snippets"] = answer.ContextSnippets
	}
	writeJSON(w, http.StatusOK, resp)
}

// bearerToken extracts the API key from a well-formed Bearer
// Authorization header.
func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ragcore.NewError(ragcore.KindAuth, "missing or malformed Authorization header")
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ragcore.NewError(ragcore.KindAuth, "missing or malformed Authorization header")
	}
	return token, nil
}
