package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// DefaultHuggingFaceURL is the hosted inference API.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co"

const huggingFaceTopP = 0.9

// HuggingFaceConfig configures the hosted inference adapter.
type HuggingFaceConfig struct {
	// APIKey is the bearer credential. Empty or placeholder values fail before any I/O.
	APIKey string

	// BaseURL overrides DefaultHuggingFaceURL.
	BaseURL string

	// Options carry the shared HTTP timeout.
	Options Options
}

// HuggingFaceProvider calls the hosted inference API.
type HuggingFaceProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewHuggingFaceProvider creates the hosted inference adapter.
func NewHuggingFaceProvider(cfg HuggingFaceConfig) *HuggingFaceProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}

	return &HuggingFaceProvider{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: cfg.Options.httpClient(),
	}
}

// Name returns the provider identifier.
func (h *HuggingFaceProvider) Name() model.Provider {
	return model.ProviderHuggingFace
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
	DoSample     bool    `json:"do_sample"`
}

// buildURL returns the model endpoint. Model ids contain a slash and are used as-is.
func (h *HuggingFaceProvider) buildURL(modelID string) string {
	return h.baseURL + "/models/" + modelID
}

// Invoke posts the prompt to the model endpoint.
func (h *HuggingFaceProvider) Invoke(ctx context.Context, req llm.Request) (string, error) {
	if llm.IsPlaceholderCredential(h.apiKey) {
		return "", llm.NewConfigurationError(model.ProviderHuggingFace, "API key is not set")
	}

	req = req.WithDefaults()

	payload := huggingFaceRequest{
		Inputs: req.Prompt,
		Parameters: huggingFaceParameters{
			MaxNewTokens: req.MaxTokens,
			Temperature:  req.TemperatureValue(),
			TopP:         huggingFaceTopP,
			DoSample:     true,
		},
	}

	headers := map[string]string{"Authorization": "Bearer " + h.apiKey}

	body, err := llm.DoJSON(ctx, h.httpClient, model.ProviderHuggingFace, http.MethodPost,
		h.buildURL(req.Model), headers, payload)
	if err != nil {
		return "", err
	}

	return parseHuggingFaceResponse(body)
}

// parseHuggingFaceResponse reads generated_text from the first element of a list
// response. The response shape varies by model; any other JSON value is returned
// as its compact JSON text.
func parseHuggingFaceResponse(body []byte) (string, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", llm.NewProviderError(model.ProviderHuggingFace, "parse response", err)
	}

	if list, ok := raw.([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			text, _ := first["generated_text"].(string)
			return strings.TrimSpace(text), nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return "", llm.NewProviderError(model.ProviderHuggingFace, "parse response", err)
	}
	return strings.TrimSpace(compact.String()), nil
}
