// Package embedding implements the embedding service (C3): a fixed
// provider registry translating text into fixed-dimension vectors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krira-ai/ragcore"
)

// Model is the closed set of embedding model tags.
type Model string

const (
	ModelOpenAISmall Model = "openai-small"
	ModelOpenAILarge Model = "openai-large"
	ModelHuggingFace Model = "huggingface"

	// HuggingFaceDimension is the fixed dimension of the disabled
	// local "small-cpu" model.
	HuggingFaceDimension = 384
)

// modelAliases maps legacy/OpenAI-native model names onto the
// canonical tags, matching original_source's OPENAI_MODEL_ALIASES.
var modelAliases = map[string]Model{
	"openai-small":           ModelOpenAISmall,
	"text-embedding-3-small": ModelOpenAISmall,
	"openai-large":           ModelOpenAILarge,
	"text-embedding-3-large": ModelOpenAILarge,
}

var targetModelNames = map[Model]string{
	ModelOpenAISmall: "openai/text-embedding-3-small",
	ModelOpenAILarge: "openai/text-embedding-3-large",
}

// dimensionOptions lists each model's allowed dimensions; the first
// entry is the default.
var dimensionOptions = map[Model][]int{
	ModelOpenAISmall: {1536, 512},
	ModelOpenAILarge: {3072, 1024, 256},
}

const batchSize = 64

// Service generates embeddings via the hosted gateway.
type Service struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config configures a Service.
type Config struct {
	BaseURL string
	APIKey  string
}

// New returns a Service bound to the hosted embedding gateway.
func New(cfg Config) *Service {
	return &Service{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// resolveModel canonicalizes a caller-supplied model tag.
func resolveModel(model string) (Model, error) {
	if canonical, ok := modelAliases[model]; ok {
		return canonical, nil
	}
	if Model(model) == ModelHuggingFace {
		return ModelHuggingFace, nil
	}
	return "", ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("unsupported embedding model %q", model))
}

// resolveDimension validates a requested dimension against the
// model's allowed set, defaulting to the first (canonical) option.
func resolveDimension(model Model, requested int) (int, error) {
	options, ok := dimensionOptions[model]
	if !ok {
		return 0, ragcore.NewError(ragcore.KindServiceConfig, fmt.Sprintf("no dimension options configured for %q", model))
	}
	if requested == 0 {
		return options[0], nil
	}
	for _, d := range options {
		if d == requested {
			return d, nil
		}
	}
	var choices []string
	for _, d := range options {
		choices = append(choices, fmt.Sprintf("%d", d))
	}
	return 0, ragcore.NewError(ragcore.KindValidation,
		fmt.Sprintf("dimension %d is not supported for %s embeddings; choose one of %s", requested, model, strings.Join(choices, ", ")))
}

// Embed strips and drops empty texts, then generates embeddings for
// the remainder, batching hosted-provider calls in groups of 64 and
// preserving input order.
func (s *Service) Embed(ctx context.Context, model string, texts []string, dimension int) ([][]float32, error) {
	payload := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t != "" {
			payload = append(payload, t)
		}
	}
	if len(payload) == 0 {
		return nil, nil
	}

	canonical, err := resolveModel(model)
	if err != nil {
		return nil, err
	}

	if canonical == ModelHuggingFace {
		return nil, ragcore.NewError(ragcore.KindServiceConfig,
			"local embeddings are currently disabled; use a hosted embedding model")
	}

	dim, err := resolveDimension(canonical, dimension)
	if err != nil {
		return nil, err
	}

	if s.apiKey == "" {
		return nil, ragcore.NewError(ragcore.KindServiceConfig, "embedding provider API key is not configured")
	}

	targetModel := targetModelNames[canonical]
	var out [][]float32
	for i := 0; i < len(payload); i += batchSize {
		end := i + batchSize
		if end > len(payload) {
			end = len(payload)
		}
		vectors, err := s.embedBatch(ctx, targetModel, payload[i:end], dim)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// embedBatch calls the gateway's /embeddings endpoint, ordering the
// output by the response's declared index rather than array position.
func (s *Service) embedBatch(ctx context.Context, model string, texts []string, dimension int) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: model, Input: texts, Dimensions: dimension})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "embedding provider request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "failed to read embedding provider response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ragcore.NewError(ragcore.KindUpstream, fmt.Sprintf("embedding provider error %d: %s", resp.StatusCode, string(data)))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "failed to decode embedding provider response", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
