// Package llm provides the model configuration, provider client, and the
// rate-limited invoker through which every pipeline stage issues requests.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: skill extraction, quick scoring
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: ranking, gap analysis
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: review, profile extraction
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider (future)
	ProviderOpenAI Provider = "openai"
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// InvokerOptions bound the invoker's request rate and retry behavior.
type InvokerOptions struct {
	// QuotaPerMinute is the per-model request quota for the sliding window.
	// The Gemini free tier allows 10 requests per minute per model.
	QuotaPerMinute int
	// MaxAttempts is the total number of attempts for a quota-limited call.
	MaxAttempts int
	// BaseRetryDelay is the first backoff delay; it doubles per attempt.
	BaseRetryDelay time.Duration
}

// DefaultInvokerOptions mirrors the Gemini free-tier limits.
func DefaultInvokerOptions() InvokerOptions {
	return InvokerOptions{
		QuotaPerMinute: 10,
		MaxAttempts:    3,
		BaseRetryDelay: 2 * time.Second,
	}
}
