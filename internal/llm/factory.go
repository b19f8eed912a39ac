package llm

import (
	"fmt"
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
)

// NewProvider creates a text-analysis provider from configuration.
// Unlike optional add-ons, analysis is the core of the pipeline: an empty
// provider name is a configuration error, not a disabled feature.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "azure":
		return NewAzureProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("text-analysis provider is required (azure, openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown text-analysis provider: %s (supported: azure, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config into provider config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		Deployment:  llmCfg.Deployment,
		APIKey:      llmCfg.APIKey,
		Endpoint:    llmCfg.Endpoint,
		APIVersion:  llmCfg.APIVersion,
		BaseURL:     llmCfg.BaseURL,
		Timeout:     llmCfg.Timeout,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}
