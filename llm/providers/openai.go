// Package providers implements the managed API, local daemon and hosted inference adapters.
package providers

import (
	"context"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// Sampling parameters for the managed API.
const (
	openAITopP             = 0.9
	openAIFrequencyPenalty = 0.1
	openAIPresencePenalty  = 0.0
)

// OpenAIConfig configures the managed API adapter.
type OpenAIConfig struct {
	// APIKey is the credential. Empty or placeholder values fail before any I/O.
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for proxies. Empty uses the SDK default.
	BaseURL string

	// Options carry the shared HTTP timeout.
	Options Options
}

// OpenAIProvider calls the managed API through the official-compatible SDK.
type OpenAIProvider struct {
	apiKey string
	client *openai.Client
}

// NewOpenAIProvider creates the managed API adapter.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = cfg.Options.httpClient()

	return &OpenAIProvider{
		apiKey: cfg.APIKey,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() model.Provider {
	return model.ProviderOpenAI
}

// Invoke sends a chat request for chat-style models and a plain completion otherwise.
func (o *OpenAIProvider) Invoke(ctx context.Context, req llm.Request) (string, error) {
	if llm.IsPlaceholderCredential(o.apiKey) {
		return "", llm.NewConfigurationError(model.ProviderOpenAI, "API key is not set")
	}

	req = req.WithDefaults()

	if req.CallStyle == model.CallStyleChat {
		return o.chat(ctx, req)
	}
	return o.complete(ctx, req)
}

func (o *OpenAIProvider) chat(ctx context.Context, req llm.Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:        req.MaxTokens,
		Temperature:      openAITemperature(req),
		TopP:             openAITopP,
		FrequencyPenalty: openAIFrequencyPenalty,
		PresencePenalty:  openAIPresencePenalty,
	})
	if err != nil {
		return "", llm.NewProviderError(model.ProviderOpenAI, "", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.NewProviderError(model.ProviderOpenAI, "response has no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAIProvider) complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := o.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:            req.Model,
		Prompt:           req.Prompt,
		MaxTokens:        req.MaxTokens,
		Temperature:      openAITemperature(req),
		TopP:             openAITopP,
		FrequencyPenalty: openAIFrequencyPenalty,
		PresencePenalty:  openAIPresencePenalty,
	})
	if err != nil {
		return "", llm.NewProviderError(model.ProviderOpenAI, "", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.NewProviderError(model.ProviderOpenAI, "response has no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Text), nil
}

// openAITemperature maps a zero temperature to the smallest positive float32.
// The SDK omits a zero value, and the API would then apply its own default.
func openAITemperature(req llm.Request) float32 {
	t := float32(req.TemperatureValue())
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
