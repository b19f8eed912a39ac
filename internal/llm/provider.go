package llm

import "context"

// Provider defines the interface for text-analysis providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Analyze sends one analysis prompt and returns the raw completion.
	// Providers add no interpretation; parsing belongs to the caller.
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// AnalysisRequest contains the input for one analysis call
type AnalysisRequest struct {
	// System sets the provider's system/role prompt
	System string

	// Prompt is the user prompt with the publication metadata inlined
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// WantJSON asks the provider for a JSON object reply where the API
	// supports enforcing it; elsewhere it is best-effort via the prompt
	WantJSON bool
}

// AnalysisResponse contains the provider's reply
type AnalysisResponse struct {
	// Content is the raw completion text
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds text-analysis provider configuration
type Config struct {
	// Provider name: "azure", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// Deployment is the Azure OpenAI deployment name
	Deployment string

	// APIKey for hosted providers
	APIKey string

	// Endpoint is the Azure OpenAI resource endpoint
	Endpoint string

	// APIVersion is the Azure OpenAI API version
	APIVersion string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for response generation
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "azure",
		Timeout:     60,
		MaxTokens:   1000,
		Temperature: 0.2,
	}
}
