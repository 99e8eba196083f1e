// Package model provides the static catalog of models the co-writer can talk to.
// Models are grouped by the provider family that serves them, and the group order
// is fixed so that menus and lookups enumerate providers the same way every time.
package model

import "strings"

// Provider identifies a backend family with its own wire protocol.
type Provider string

const (
	// ProviderOpenAI is the managed API. Requires a credential.
	ProviderOpenAI Provider = "openai"

	// ProviderOllama is the local daemon.
	ProviderOllama Provider = "ollama"

	// ProviderHuggingFace is the hosted inference API. Requires a credential.
	ProviderHuggingFace Provider = "huggingface"
)

// providerOrder is the enumeration order for provider groups.
// Resolution tie-breaks follow this order.
var providerOrder = []Provider{ProviderOpenAI, ProviderOllama, ProviderHuggingFace}

// Providers returns the known providers in group order.
func Providers() []Provider {
	out := make([]Provider, len(providerOrder))
	copy(out, providerOrder)
	return out
}

// IsValid checks if a provider string is a known provider.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderOllama, ProviderHuggingFace:
		return true
	}
	return false
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// rank returns the position of p in the group order, or len(providerOrder) for unknown providers.
func (p Provider) rank() int {
	for i, known := range providerOrder {
		if known == p {
			return i
		}
	}
	return len(providerOrder)
}

// ParseProvider converts a string to a Provider, returning empty for invalid values.
func ParseProvider(s string) Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return ""
}

// CallStyle selects the request shape a provider uses for a model.
type CallStyle string

const (
	// CallStyleCompletion sends the raw prompt string.
	CallStyleCompletion CallStyle = "completion"

	// CallStyleChat sends a role-tagged message list with a single user turn.
	CallStyleChat CallStyle = "chat"
)

// IsValid checks if a call style is known. Empty is valid and means completion.
func (c CallStyle) IsValid() bool {
	switch c {
	case "", CallStyleCompletion, CallStyleChat:
		return true
	}
	return false
}
