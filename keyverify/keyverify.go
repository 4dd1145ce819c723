// Package keyverify implements the key-verification and usage-tracking
// collaborator clients: the external service that turns an opaque API
// key into a Pipeline configuration, and that records token usage
// against it.
package keyverify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krira-ai/ragcore"
)

const requestTimeout = 10 * time.Second

// Client talks to the key-verification and usage-tracking collaborator.
type Client struct {
	verifyURL     string
	serviceSecret string
	http          *http.Client
}

// Config configures a Client.
type Config struct {
	VerifyURL     string
	ServiceSecret string
}

// New returns a Client bound to the configured collaborator.
func New(cfg Config) *Client {
	return &Client{
		verifyURL:     strings.TrimSuffix(cfg.VerifyURL, "/"),
		serviceSecret: cfg.ServiceSecret,
		http:          &http.Client{Timeout: requestTimeout},
	}
}

type verifyRequest struct {
	APIKey       string `json:"apiKey"`
	PipelineName string `json:"pipelineName"`
}

// verifyResponse accepts both the current "pipeline" key and the
// legacy "bot" key for backward compatibility with the collaborator
// contract.
type verifyResponse struct {
	Pipeline *pipelinePayload `json:"pipeline"`
	Bot      *pipelinePayload `json:"bot"`
	Message  string           `json:"message"`
}

type pipelinePayload struct {
	ID        string          `json:"id"`
	LLM       llmPayload      `json:"llm"`
	Embedding embeddingPayload `json:"embedding"`
}

type llmPayload struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
	TopK         int    `json:"topK"`
}

type embeddingPayload struct {
	VectorStore       string                   `json:"vectorStore"`
	Model             string                   `json:"model"`
	Dimension         int                      `json:"dimension"`
	DatasetIDs        []string                 `json:"datasetIds"`
	VectorStoreConfig vectorStoreConfigPayload `json:"pineconeConfig"`
}

// vectorStoreConfigPayload matches the collaborator contract's
// "pineconeConfig" sub-object. StoreDir is decoded from an optional
// "storeDir" key beside the three contract fields; it only matters for
// the local backend.
type vectorStoreConfigPayload struct {
	APIKey    string `json:"apiKey"`
	IndexName string `json:"indexName"`
	Namespace string `json:"namespace"`
	StoreDir  string `json:"storeDir"`
}

func (p pipelinePayload) toPipeline() ragcore.Pipeline {
	return ragcore.Pipeline{
		ID: p.ID,
		LLM: ragcore.LLMConfig{
			Provider:     p.LLM.Provider,
			Model:        p.LLM.Model,
			SystemPrompt: p.LLM.SystemPrompt,
			TopK:         p.LLM.TopK,
		},
		Embedding: ragcore.EmbeddingConfig{
			VectorStore: p.Embedding.VectorStore,
			Model:       p.Embedding.Model,
			Dimension:   p.Embedding.Dimension,
			DatasetIDs:  p.Embedding.DatasetIDs,
			VectorStoreConfig: ragcore.VectorStoreConfig{
				APIKey:    p.Embedding.VectorStoreConfig.APIKey,
				IndexName: p.Embedding.VectorStoreConfig.IndexName,
				Namespace: p.Embedding.VectorStoreConfig.Namespace,
				StoreDir:  p.Embedding.VectorStoreConfig.StoreDir,
			},
		},
	}
}

// Verify exchanges an API key plus pipeline name for a Pipeline
// configuration. Non-200 responses surface as a ServiceError whose
// Kind mirrors the collaborator's status code.
func (c *Client) Verify(ctx context.Context, apiKey, pipelineName string) (*ragcore.Pipeline, error) {
	if c.serviceSecret == "" {
		return nil, ragcore.NewError(ragcore.KindServiceConfig, "service secret is not configured")
	}
	if c.verifyURL == "" {
		return nil, ragcore.NewError(ragcore.KindServiceConfig, "key-verification URL is not configured")
	}

	body, err := json.Marshal(verifyRequest{APIKey: apiKey, PipelineName: pipelineName})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-service-key", c.serviceSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "unable to verify API key", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "failed to read verification response", err)
	}

	var parsed verifyResponse
	_ = json.Unmarshal(data, &parsed)

	if resp.StatusCode != http.StatusOK {
		return nil, ragcore.NewError(kindForStatus(resp.StatusCode), fallbackMessage(parsed.Message, "API key verification failed"))
	}

	selected := parsed.Pipeline
	if selected == nil {
		selected = parsed.Bot
	}
	if selected == nil {
		return nil, ragcore.NewError(ragcore.KindUpstream, "verification response did not include a pipeline configuration")
	}

	pipeline := selected.toPipeline()
	return &pipeline, nil
}

type trackUsageRequest struct {
	APIKey       string `json:"apiKey"`
	PipelineName string `json:"pipelineName"`
	Tokens       int    `json:"tokens"`
}

// TrackUsage records token usage against a pipeline. A 402 response
// (request limit reached) is the one failure mode surfaced to the
// caller; every other failure is swallowed so usage tracking never
// breaks the request it is reporting on.
func (c *Client) TrackUsage(ctx context.Context, apiKey, pipelineName string, tokens int) error {
	if c.serviceSecret == "" || c.verifyURL == "" {
		return nil
	}

	base := c.verifyURL
	if idx := strings.LastIndex(base, "/"); idx != -1 {
		base = base[:idx]
	}
	trackURL := base + "/track-usage"

	body, err := json.Marshal(trackUsageRequest{APIKey: apiKey, PipelineName: pipelineName, Tokens: tokens})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, trackURL, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-service-key", c.serviceSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		data, _ := io.ReadAll(resp.Body)
		var parsed struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &parsed)
		return ragcore.NewError(ragcore.KindPaymentRequired, fallbackMessage(parsed.Message, "request limit reached"))
	}

	return nil
}

func kindForStatus(status int) ragcore.Kind {
	switch status {
	case http.StatusUnauthorized:
		return ragcore.KindAuth
	case http.StatusForbidden:
		return ragcore.KindForbidden
	case http.StatusNotFound:
		return ragcore.KindNotFound
	case http.StatusPaymentRequired:
		return ragcore.KindPaymentRequired
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ragcore.KindValidation
	default:
		return ragcore.KindUpstream
	}
}

func fallbackMessage(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
