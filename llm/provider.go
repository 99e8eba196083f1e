package llm

import (
	"context"
	"sort"
	"time"

	"github.com/interspecifics/Tbot-writer/model"
)

// Sampling defaults shared by every adapter.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.3

	// DefaultTimeout bounds a single provider call. All adapters share it.
	DefaultTimeout = 60 * time.Second
)

// Request is the normalized call every adapter accepts.
type Request struct {
	// Prompt is the composed prompt text.
	Prompt string

	// Model is the provider-specific model id.
	Model string

	// CallStyle selects chat or completion where the provider distinguishes them.
	CallStyle model.CallStyle

	// MaxTokens limits response length. 0 uses DefaultMaxTokens.
	MaxTokens int

	// Temperature controls randomness. nil uses DefaultTemperature, 0 is deterministic.
	Temperature *float64
}

// WithDefaults returns a copy of r with zero sampling fields filled in.
func (r Request) WithDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	return r
}

// TemperatureValue returns the effective temperature.
func (r Request) TemperatureValue() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Provider defines the interface for LLM backend adapters.
// Each implementation owns its wire format and error wrapping.
type Provider interface {
	// Name returns the provider family this adapter serves.
	Name() model.Provider

	// Invoke sends the prompt and returns the trimmed continuation text.
	// Failures are *ConfigurationError or *ProviderError.
	Invoke(ctx context.Context, req Request) (string, error)
}

// ProviderTable maps provider tags to adapters. The dispatcher routes through it.
type ProviderTable map[model.Provider]Provider

// NewProviderTable builds a table from adapters, keyed by their Name.
func NewProviderTable(providers ...Provider) ProviderTable {
	t := make(ProviderTable, len(providers))
	for _, p := range providers {
		t.Register(p)
	}
	return t
}

// Register adds or replaces an adapter.
func (t ProviderTable) Register(p Provider) {
	t[p.Name()] = p
}

// Get retrieves the adapter for a provider, or nil.
func (t ProviderTable) Get(p model.Provider) Provider {
	return t[p]
}

// Names returns the registered provider tags, sorted.
func (t ProviderTable) Names() []model.Provider {
	names := make([]model.Provider, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
