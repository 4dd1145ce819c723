package main

import (
	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/chatengine"
	"github.com/krira-ai/ragcore/embedding"
	"github.com/krira-ai/ragcore/eval"
	"github.com/krira-ai/ragcore/ingest"
	"github.com/krira-ai/ragcore/keyverify"
	"github.com/krira-ai/ragcore/llmgateway"
	"github.com/krira-ai/ragcore/loader"
	"github.com/krira-ai/ragcore/vectorstore"
)

// service wires every component behind the handlers: a single
// construction point for every request-serving dependency, built
// once from Config at startup.
type service struct {
	cfg ragcore.Config

	loader    *loader.Loader
	embedder  *embedding.Service
	store     vectorstore.Store
	gateway   *llmgateway.Client
	chat      *chatengine.Engine
	ingestor  *ingest.Orchestrator
	evaluator *eval.Engine
	keys      *keyverify.Client
}

// newService constructs every C1-C9 dependency from cfg. The managed
// vector-store backend is dialed eagerly; a failure there is fatal to
// startup since every pipeline with retrieval may need it.
func newService(cfg ragcore.Config) (*service, error) {
	local, err := vectorstore.NewLocalStore(cfg.LocalStoreDir)
	if err != nil {
		return nil, err
	}

	var managed *vectorstore.ManagedStore
	if cfg.QdrantAddr != "" {
		managed, err = vectorstore.NewManagedStore(cfg.QdrantAddr, cfg.QdrantAPIKey)
		if err != nil {
			local.Close()
			return nil, err
		}
	}

	store := vectorstore.New(managed, local)

	embedder := embedding.New(embedding.Config{
		BaseURL: cfg.GatewayBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
	})

	gateway := llmgateway.New(llmgateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		APIKey:    cfg.GatewayAPIKey,
		MaxTokens: cfg.LLMMaxTokens,
	})

	l := loader.New(cfg.UploadRoot)
	chat := chatengine.New(embedder, store, gateway)

	return &service{
		cfg:       cfg,
		loader:    l,
		embedder:  embedder,
		store:     store,
		gateway:   gateway,
		chat:      chat,
		ingestor:  ingest.New(l, embedder, store),
		evaluator: eval.New(chat, gateway, cfg.JudgeModel),
		keys:      keyverify.New(keyverify.Config{VerifyURL: cfg.VerifyURL, ServiceSecret: cfg.ServiceSecret}),
	}, nil
}

func (s *service) Close() error {
	return s.store.Close()
}
