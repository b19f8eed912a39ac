package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AzureProvider implements the Provider interface for Azure OpenAI
// deployments. Requests address a deployment name rather than a model;
// the model field only labels responses.
type AzureProvider struct {
	client *openai.Client
	config Config
}

// NewAzureProvider creates a new Azure OpenAI provider
func NewAzureProvider(config Config) (*AzureProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Azure OpenAI API key is required")
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("Azure OpenAI endpoint is required")
	}
	if config.Deployment == "" {
		return nil, fmt.Errorf("Azure OpenAI deployment name is required")
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.Endpoint)
	if config.APIVersion != "" {
		clientConfig.APIVersion = config.APIVersion
	}
	deployment := config.Deployment
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return deployment
	}

	return &AzureProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AzureProvider) Name() string {
	return "azure"
}

// IsAvailable checks if the deployment answers at all. Azure exposes no
// cheap listing endpoint per deployment, so this sends a one-token ping.
func (p *AzureProvider) IsAvailable(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := p.client.CreateChatCompletion(pingCtx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Azure OpenAI check failed (%s): %v\n", p.config.Deployment, err)
		return false
	}
	return true
}

// Analyze sends the prompt through the configured Azure deployment
func (p *AzureProvider) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	// Model is mapped to the deployment by the client config; pass it
	// through for response labeling
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = p.config.Deployment
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: p.config.Temperature,
	}
	if req.WantJSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from Azure OpenAI")
	}

	return &AnalysisResponse{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
