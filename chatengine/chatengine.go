// Package chatengine implements the chat orchestrator (C7): the
// end-to-end public chat contract wiring the embedding service, the
// vector store, the prompt builder, and the LLM gateway together.
package chatengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/embedding"
	"github.com/krira-ai/ragcore/llmgateway"
	"github.com/krira-ai/ragcore/promptbuilder"
	"github.com/krira-ai/ragcore/vectorstore"
)

const defaultTopK = 30
const maxContextSnippets = 3

// Engine answers a single chat question against an optional retrieval
// corpus.
type Engine struct {
	embedder *embedding.Service
	store    vectorstore.Store
	llm      *llmgateway.Client
}

// New wires the C3/C4/C6 dependencies behind a chat Engine.
func New(embedder *embedding.Service, store vectorstore.Store, llm *llmgateway.Client) *Engine {
	return &Engine{embedder: embedder, store: store, llm: llm}
}

// Request is a single public chat turn.
type Request struct {
	Pipeline       ragcore.Pipeline
	Question       string
	ConversationID string
}

// Answer is the C7 response contract. TotalTokens is exposed
// alongside the contract fields so the HTTP layer can report usage to
// the usage-tracking collaborator without re-deriving it.
type Answer struct {
	Answer          string
	LatencyMs       int64
	ContextSnippets []string
	ConversationID  string
	TotalTokens     int
}

// Answer runs the four-step chat contract: validate, retrieve (best
// effort), build the prompt, and generate.
func (e *Engine) Answer(ctx context.Context, req Request) (*Answer, error) {
	provider, err := llmgateway.ValidateProvider(req.Pipeline.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if req.Pipeline.LLM.Model == "" {
		return nil, ragcore.NewError(ragcore.KindValidation, "model id is required")
	}

	start := time.Now()

	var hits []vectorstore.Hit
	if req.Pipeline.HasRetrieval() {
		hits, err = e.retrieve(ctx, req.Pipeline, req.Question)
		if err != nil {
			slog.Warn("chatengine: context retrieval failed, degrading to no external docs",
				"pipeline_id", req.Pipeline.ID, "error", err)
			hits = nil
		}
	}

	promptHits := make([]promptbuilder.Hit, len(hits))
	for i, h := range hits {
		promptHits[i] = promptbuilder.Hit{Text: h.Text}
	}
	contextWindow := promptbuilder.BuildContextWindow(promptHits)
	system := promptbuilder.SystemPrompt(req.Pipeline.LLM.SystemPrompt)
	user := promptbuilder.UserPrompt(req.Question, contextWindow)

	result, err := e.llm.Chat(ctx, string(provider)+"/"+req.Pipeline.LLM.Model, system, user)
	if err != nil {
		return nil, err
	}

	latency := time.Since(start)

	return &Answer{
		Answer:          result.Content,
		LatencyMs:       latency.Milliseconds(),
		ContextSnippets: contextSnippets(hits),
		ConversationID:  req.ConversationID,
		TotalTokens:     result.Usage.TotalTokens,
	}, nil
}

// retrieve embeds the question (C3) and queries the vector store (C4)
// with the pipeline's configured top_k, defaulting to 30 and clamped
// to at least 1.
func (e *Engine) retrieve(ctx context.Context, p ragcore.Pipeline, question string) ([]vectorstore.Hit, error) {
	vectors, err := e.embedder.Embed(ctx, p.Embedding.Model, []string{question}, p.Embedding.Dimension)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	topK := p.LLM.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	cfg := vectorstore.Config{
		APIKey:    p.Embedding.VectorStoreConfig.APIKey,
		IndexName: p.Embedding.VectorStoreConfig.IndexName,
		Namespace: p.Embedding.VectorStoreConfig.Namespace,
		StoreDir:  p.Embedding.VectorStoreConfig.StoreDir,
	}

	return e.store.Query(ctx, vectorstore.Backend(p.Embedding.VectorStore), vectors[0], p.Embedding.Model, topK, cfg, p.Embedding.DatasetIDs)
}

// contextSnippets returns the first maxContextSnippets non-empty hit
// texts, preserving retrieval order.
func contextSnippets(hits []vectorstore.Hit) []string {
	out := make([]string, 0, maxContextSnippets)
	for _, h := range hits {
		if h.Text == "" {
			continue
		}
		out = append(out, h.Text)
		if len(out) == maxContextSnippets {
			break
		}
	}
	return out
}
