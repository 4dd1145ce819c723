// Package llmgateway implements the LLM gateway client (C6): a single
// upstream router fronting a closed set of provider tags, plus the
// token-usage normalization every caller relies on.
package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/krira-ai/ragcore"
)

const (
	maxRetries        = 6
	baseRetryDelay    = 2 * time.Second
	minRateLimitDelay = 5 * time.Second
)

// Client talks to a single OpenAI-compatible gateway that fronts
// every supported provider tag.
type Client struct {
	baseURL   string
	apiKey    string
	maxTokens int
	http      *http.Client
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	MaxTokens int
}

// New returns a Client bound to the configured gateway.
func New(cfg Config) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxTokens,
		http:      &http.Client{Timeout: 120 * time.Second},
	}
}

// Usage carries normalized token counts plus any unrecognized
// provider metadata, preserved verbatim.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	InputTokens      int
	OutputTokens     int
	Metadata         map[string]interface{}
}

// ChatResult is the outcome of a single chat completion call.
type ChatResult struct {
	Content string
	Usage   Usage
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage map[string]interface{} `json:"usage"`
}

// Chat invokes the gateway with a system+user message pair, honoring
// the configured process-wide max-token ceiling.
func (c *Client) Chat(ctx context.Context, model, system, user string) (*ChatResult, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ragcore.NewError(ragcore.KindServiceConfig, "LLM gateway base URL or API key is not configured")
	}

	body := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: c.maxTokens,
	}

	respBody, err := c.doPost(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, ragcore.Wrap(ragcore.KindUpstream, "failed to decode LLM gateway response", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ragcore.NewError(ragcore.KindUpstream, "LLM gateway returned no choices")
	}

	normalized, metadata := NormalizeUsage(resp.Usage)
	return &ChatResult{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     normalized["prompt_tokens"],
			CompletionTokens: normalized["completion_tokens"],
			TotalTokens:      normalized["total_tokens"],
			InputTokens:      normalized["input_tokens"],
			OutputTokens:     normalized["output_tokens"],
			Metadata:         metadata,
		},
	}, nil
}

// ChatJudge invokes the gateway at temperature 0 with an explicit max
// token ceiling, used by the evaluation judge call.
func (c *Client) ChatJudge(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return "", ragcore.NewError(ragcore.KindServiceConfig, "LLM gateway base URL or API key is not configured")
	}

	zero := 0.0
	body := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: &zero,
		MaxTokens:   maxTokens,
	}

	respBody, err := c.doPost(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", ragcore.Wrap(ragcore.KindUpstream, "failed to decode judge response", err)
	}
	if len(resp.Choices) == 0 {
		return "", ragcore.NewError(ragcore.KindUpstream, "judge LLM returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// retryableStatusCode: retry on rate limiting and upstream
// unavailability only.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

func (c *Client) doPost(ctx context.Context, path string, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("llmgateway: retrying request", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request to %s failed: %w", url, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}

		lastErr = fmt.Errorf("LLM gateway error %d: %s", resp.StatusCode, string(respBody))

		if !retryableStatusCode(resp.StatusCode) {
			return nil, ragcore.Wrap(ragcore.KindUpstream, "LLM gateway request failed", lastErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimitDelay := minRateLimitDelay * time.Duration(1<<attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
					if headerDelay := time.Duration(seconds) * time.Second; headerDelay > rateLimitDelay {
						rateLimitDelay = headerDelay
					}
				}
			}
			slog.Warn("llmgateway: rate limited, waiting before retry", "url", url, "attempt", attempt+1, "delay", rateLimitDelay)
			select {
			case <-time.After(rateLimitDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, ragcore.Wrap(ragcore.KindUpstream, "LLM gateway max retries exceeded", lastErr)
}
