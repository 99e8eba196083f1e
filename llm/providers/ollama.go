package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// DefaultOllamaURL is the local daemon's default address.
const DefaultOllamaURL = "http://localhost:11434"

// Sampling parameters for the local daemon.
const (
	ollamaTopP          = 0.9
	ollamaRepeatPenalty = 1.1
)

// OllamaConfig configures the local daemon adapter.
type OllamaConfig struct {
	// BaseURL is the daemon address. Empty uses DefaultOllamaURL.
	BaseURL string

	// Options carry the shared HTTP timeout.
	Options Options
}

// OllamaProvider calls the local daemon's native generate API.
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaProvider creates the local daemon adapter.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: cfg.Options.httpClient(),
	}
}

// Name returns the provider identifier.
func (o *OllamaProvider) Name() model.Provider {
	return model.ProviderOllama
}

// BaseURL returns the daemon address.
func (o *OllamaProvider) BaseURL() string {
	return o.baseURL
}

// ollamaRequest is the /api/generate request body.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict    int     `json:"num_predict"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// ollamaResponse is the non-streaming /api/generate response.
type ollamaResponse struct {
	Response string `json:"response"`
}

// ollamaTags is the /api/tags response.
type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// buildRequestBody creates the generate request body.
func (o *OllamaProvider) buildRequestBody(req llm.Request) ollamaRequest {
	return ollamaRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:    req.MaxTokens,
			Temperature:   req.TemperatureValue(),
			TopP:          ollamaTopP,
			RepeatPenalty: ollamaRepeatPenalty,
		},
	}
}

// Invoke posts the prompt to /api/generate. A missing response field yields "".
func (o *OllamaProvider) Invoke(ctx context.Context, req llm.Request) (string, error) {
	req = req.WithDefaults()

	body, err := llm.DoJSON(ctx, o.httpClient, model.ProviderOllama, http.MethodPost,
		o.baseURL+"/api/generate", nil, o.buildRequestBody(req))
	if err != nil {
		return "", err
	}

	return parseOllamaResponse(body)
}

func parseOllamaResponse(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", llm.NewProviderError(model.ProviderOllama, "parse response", err)
	}
	return strings.TrimSpace(resp.Response), nil
}

// ListInstalled returns the installed model names with tags stripped ("llama2:7b" -> "llama2").
func (o *OllamaProvider) ListInstalled(ctx context.Context) ([]string, error) {
	body, err := llm.DoJSON(ctx, o.httpClient, model.ProviderOllama, http.MethodGet,
		o.baseURL+"/api/tags", nil, nil)
	if err != nil {
		return nil, err
	}

	var tags ollamaTags
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, llm.NewProviderError(model.ProviderOllama, "parse tags", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name, _, _ := strings.Cut(m.Name, ":")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
