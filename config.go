package ragcore

import (
	"os"
	"strconv"
)

// Config holds all process-wide, read-only-after-start configuration
// for the RAG serving core. It is populated from the environment by
// LoadConfig (see cmd/server/main.go).
type Config struct {
	// UploadRoot is the single allow-listed directory that relative
	// dataset file paths resolve against (C2 path safety).
	UploadRoot string

	// EvaluationRoot is the allow-listed directory tree for CSV
	// evaluation files, by path or decoded inline content (C9).
	EvaluationRoot string

	// GatewayBaseURL and GatewayAPIKey address the single upstream LLM
	// gateway that fronts every provider tag (C6).
	GatewayBaseURL string
	GatewayAPIKey  string

	// EmbeddingAPIKey authenticates hosted embedding-provider calls (C3).
	// Falls back to GatewayAPIKey when empty.
	EmbeddingAPIKey string

	// LLMMaxTokens bounds max_tokens on every chat/judge invocation.
	LLMMaxTokens int

	// EvaluationConcurrency is the bounded fan-out ceiling for C9, in [1,16].
	EvaluationConcurrency int

	// QdrantAddr and QdrantAPIKey address the managed-backend vector
	// index (C4). One client is built from them at startup and serves
	// every pipeline; a pipeline's vector_store_config supplies the
	// index name and namespace, and its API key does not select a
	// different client.
	QdrantAddr   string
	QdrantAPIKey string

	// LocalStoreDir is the directory the local persistent backend's
	// SQLite database lives in (C4).
	LocalStoreDir string

	// ServiceSecret authenticates calls to the key-verification and
	// usage-tracking collaborators.
	ServiceSecret string

	// VerifyURL is the key-verification collaborator endpoint.
	VerifyURL string

	// JudgeModel is the fixed gateway model id used for the
	// evaluation judge call (C9), independent of any pipeline's
	// answering model.
	JudgeModel string
}

// DefaultConfig returns a Config with conservative defaults suitable
// for local development.
func DefaultConfig() Config {
	return Config{
		UploadRoot:             "./uploads",
		EvaluationRoot:         "./evaluations",
		GatewayBaseURL:         "https://go.fastrouter.ai/api/v1",
		LLMMaxTokens:           1024,
		EvaluationConcurrency:  3,
		LocalStoreDir:          "./vectorstore/local",
		QdrantAddr:             "localhost:6334",
		JudgeModel:             "openai/gpt-4.1",
	}
}

// LoadConfig builds a Config from DefaultConfig overridden by
// RAGCORE_* environment variables.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("RAGCORE_UPLOAD_ROOT"); v != "" {
		cfg.UploadRoot = v
	}
	if v := os.Getenv("RAGCORE_EVALUATION_ROOT"); v != "" {
		cfg.EvaluationRoot = v
	}
	if v := os.Getenv("RAGCORE_GATEWAY_BASE_URL"); v != "" {
		cfg.GatewayBaseURL = v
	}
	if v := os.Getenv("RAGCORE_GATEWAY_API_KEY"); v != "" {
		cfg.GatewayAPIKey = v
	}
	if v := os.Getenv("RAGCORE_EMBEDDING_API_KEY"); v != "" {
		cfg.EmbeddingAPIKey = v
	}
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.GatewayAPIKey
	}
	if v := os.Getenv("RAGCORE_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLMMaxTokens = n
		}
	}
	if v := os.Getenv("RAGCORE_EVALUATION_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EvaluationConcurrency = clampInt(n, 1, 16)
		}
	}
	if v := os.Getenv("RAGCORE_QDRANT_ADDR"); v != "" {
		cfg.QdrantAddr = v
	}
	if v := os.Getenv("RAGCORE_QDRANT_API_KEY"); v != "" {
		cfg.QdrantAPIKey = v
	}
	if v := os.Getenv("RAGCORE_LOCAL_STORE_DIR"); v != "" {
		cfg.LocalStoreDir = v
	}
	if v := os.Getenv("RAGCORE_SERVICE_SECRET"); v != "" {
		cfg.ServiceSecret = v
	}
	if v := os.Getenv("RAGCORE_VERIFY_URL"); v != "" {
		cfg.VerifyURL = v
	}
	if v := os.Getenv("RAGCORE_JUDGE_MODEL"); v != "" {
		cfg.JudgeModel = v
	}

	return cfg
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
