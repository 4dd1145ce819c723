package llmgateway

import (
	"os"
	"sort"
	"strings"

	"github.com/krira-ai/ragcore"
)

// Provider is the closed set of LLM provider tags this gateway routes.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderGrok       Provider = "grok"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderPerplexity Provider = "perplexity"
	ProviderGLM        Provider = "glm"
)

// ProviderInfo is the display metadata for a provider tag.
type ProviderInfo struct {
	Label       string
	Description string
}

// providerMetadata reinstates original_source's PROVIDER_METADATA.
var providerMetadata = map[Provider]ProviderInfo{
	ProviderOpenAI:     {Label: "OpenAI", Description: "GPT series via the LLM gateway"},
	ProviderAnthropic:  {Label: "Anthropic", Description: "Claude family via the LLM gateway"},
	ProviderGoogle:     {Label: "Google Gemini", Description: "Gemini models served through the LLM gateway"},
	ProviderGrok:       {Label: "Grok", Description: "xAI Grok models via the LLM gateway"},
	ProviderDeepSeek:   {Label: "DeepSeek", Description: "DeepSeek reasoning models via the LLM gateway"},
	ProviderPerplexity: {Label: "Perplexity", Description: "Perplexity Sonar models via the LLM gateway"},
	ProviderGLM:        {Label: "GLM (z-ai)", Description: "Z-AI GLM family models via the LLM gateway"},
}

// modelEnvPrefixes reinstates original_source's MODEL_ENV_PREFIXES:
// each provider's curated model list may be overridden by a
// comma-separated environment variable with this prefix.
var modelEnvPrefixes = map[Provider]string{
	ProviderOpenAI:     "RAGCORE_MODEL_OPENAI",
	ProviderAnthropic:  "RAGCORE_MODEL_ANTHROPIC",
	ProviderGoogle:     "RAGCORE_MODEL_GOOGLE",
	ProviderGrok:       "RAGCORE_MODEL_GROK",
	ProviderDeepSeek:   "RAGCORE_MODEL_DEEPSEEK",
	ProviderPerplexity: "RAGCORE_MODEL_PERPLEXITY",
	ProviderGLM:        "RAGCORE_MODEL_GLM",
}

// defaultModels reinstates original_source's DEFAULT_MODELS curated
// fallback list, used when no environment override is present.
var defaultModels = map[Provider][]string{
	ProviderOpenAI:     {"openai/gpt-5", "openai/gpt-oss-120b", "openai/gpt-5.1", "openai/gpt-4.1"},
	ProviderAnthropic:  {"anthropic/claude-4.5-sonnet", "anthropic/claude-3-7-sonnet-20250219:thinking", "anthropic/claude-opus-4.1"},
	ProviderGoogle:     {"google/gemini-2.5-pro", "google/gemini-2.5-flash"},
	ProviderGrok:       {"x-ai/grok-4", "x-ai/grok-3-mini-beta"},
	ProviderDeepSeek:   {"deepseek-ai/DeepSeek-R1", "deepseek/deepseek-v3.1"},
	ProviderPerplexity: {"perplexity/sonar-reasoning-pro", "perplexity/sonar-pro", "perplexity/sonar-deep-research"},
	ProviderGLM:        {"z-ai/glm-4.6", "z-ai/glm-4.5"},
}

// modelTiers reinstates original_source's MODEL_TIERS free/paid badge
// lookup. Models absent here simply carry no badge.
var modelTiers = map[string]string{
	"openai/gpt-5":            "Paid",
	"openai/gpt-oss-120b":     "Free",
	"openai/gpt-5.1":          "Paid",
	"openai/gpt-4.1":          "Free",
	"anthropic/claude-4.5-sonnet":                     "Paid",
	"anthropic/claude-3-7-sonnet-20250219:thinking":   "Paid",
	"anthropic/claude-opus-4.1":                       "Paid",
	"google/gemini-2.5-pro":   "Paid",
	"google/gemini-2.5-flash": "Free",
	"x-ai/grok-4":             "Paid",
	"x-ai/grok-3-mini-beta":   "Paid",
	"deepseek-ai/DeepSeek-R1": "Free",
	"deepseek/deepseek-v3.1":  "Paid",
	"perplexity/sonar-reasoning-pro": "Paid",
	"perplexity/sonar-pro":           "Paid",
	"perplexity/sonar-deep-research": "Paid",
	"z-ai/glm-4.6": "Free",
	"z-ai/glm-4.5": "Free",
}

// ModelOption is a single entry in a provider's model list.
type ModelOption struct {
	ID   string
	Tier string
}

// ProviderOption is a provider entry with its available models.
type ProviderOption struct {
	Provider    Provider
	Label       string
	Description string
	Models      []ModelOption
}

// ValidateProvider returns an error unless tag names a known provider.
func ValidateProvider(tag string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := providerMetadata[p]; !ok {
		return "", ragcore.NewError(ragcore.KindValidation, "unsupported provider '"+tag+"'")
	}
	return p, nil
}

func modelsFor(p Provider) []string {
	if prefix, ok := modelEnvPrefixes[p]; ok {
		if raw := os.Getenv(prefix); raw != "" {
			var models []string
			for _, m := range strings.Split(raw, ",") {
				if m = strings.TrimSpace(m); m != "" {
					models = append(models, m)
				}
			}
			if len(models) > 0 {
				return models
			}
		}
	}
	return defaultModels[p]
}

// ListModels returns the union of every provider's model set, sorted
// case-insensitively by model id within each provider.
func ListModels() []ProviderOption {
	providers := make([]Provider, 0, len(providerMetadata))
	for p := range providerMetadata {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	out := make([]ProviderOption, 0, len(providers))
	for _, p := range providers {
		info := providerMetadata[p]
		models := append([]string(nil), modelsFor(p)...)
		sort.Slice(models, func(i, j int) bool { return strings.ToLower(models[i]) < strings.ToLower(models[j]) })

		options := make([]ModelOption, 0, len(models))
		for _, m := range models {
			options = append(options, ModelOption{ID: m, Tier: modelTiers[m]})
		}
		out = append(out, ProviderOption{Provider: p, Label: info.Label, Description: info.Description, Models: options})
	}
	return out
}
