package providers

import (
	"net/http"
	"time"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// Options are settings shared by every adapter.
type Options struct {
	// Timeout bounds each provider call. Zero uses llm.DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return llm.NewHTTPClient(o.Timeout)
}

// Config holds the settings needed to build all three adapters.
type Config struct {
	OpenAI      OpenAIConfig
	Ollama      OllamaConfig
	HuggingFace HuggingFaceConfig
}

// NewTable builds the provider table the dispatcher routes through.
func NewTable(cfg Config) llm.ProviderTable {
	return llm.NewProviderTable(
		NewOpenAIProvider(cfg.OpenAI),
		NewOllamaProvider(cfg.Ollama),
		NewHuggingFaceProvider(cfg.HuggingFace),
	)
}

// compile-time interface checks
var (
	_ llm.Provider          = (*OpenAIProvider)(nil)
	_ llm.Provider          = (*OllamaProvider)(nil)
	_ llm.Provider          = (*HuggingFaceProvider)(nil)
	_ model.InstalledLister = (*OllamaProvider)(nil)
)
