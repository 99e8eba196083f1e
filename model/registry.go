package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrModelNotFound is returned when a model id is absent from every provider group.
var ErrModelNotFound = errors.New("model not found")

// Entry is an immutable catalog entry.
type Entry struct {
	// ID is the identifier sent to the provider. Unique across the registry.
	ID string `json:"id" yaml:"id"`

	// Provider is the backend family that serves this model.
	Provider Provider `json:"provider" yaml:"provider"`

	// Description is shown in model menus.
	Description string `json:"description" yaml:"description"`

	// RequiresKey reports whether the provider needs a credential for this model.
	RequiresKey bool `json:"requires_key" yaml:"requires_key"`

	// CallStyle selects chat or plain completion requests. Empty means completion.
	CallStyle CallStyle `json:"call_style,omitempty" yaml:"call_style,omitempty"`
}

// Group holds the entries served by one provider, in display order.
type Group struct {
	Provider Provider `json:"provider" yaml:"provider"`
	Entries  []Entry  `json:"models" yaml:"models"`
}

// Registry is the grouped model catalog.
// It is built once at startup and never mutated, so it is safe to share.
type Registry struct {
	groups []Group
}

// NewRegistry creates a registry from provider groups.
// Groups are ordered openai, ollama, huggingface regardless of input order;
// unknown providers sort last in their input order. Each entry inherits its
// group's provider.
func NewRegistry(groups ...Group) *Registry {
	cloned := make([]Group, len(groups))
	for i, g := range groups {
		entries := make([]Entry, len(g.Entries))
		for j, e := range g.Entries {
			e.Provider = g.Provider
			entries[j] = e
		}
		cloned[i] = Group{Provider: g.Provider, Entries: entries}
	}

	sort.SliceStable(cloned, func(i, j int) bool {
		return cloned[i].Provider.rank() < cloned[j].Provider.rank()
	})

	return &Registry{groups: cloned}
}

// NewDefaultRegistry creates a registry with the built-in catalog.
// Used when no catalog file is provided.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		Group{
			Provider: ProviderOpenAI,
			Entries: []Entry{
				{
					ID:          "gpt-3.5-turbo-instruct",
					Description: "OpenAI's GPT-3.5 Turbo Instruct model",
					RequiresKey: true,
					CallStyle:   CallStyleCompletion,
				},
				{
					ID:          "gpt-4",
					Description: "OpenAI's GPT-4 model",
					RequiresKey: true,
					CallStyle:   CallStyleChat,
				},
			},
		},
		Group{
			Provider: ProviderOllama,
			Entries: []Entry{
				{ID: "llama2", Description: "Meta's Llama 2 model (7B parameters)"},
				{ID: "mistral", Description: "Mistral AI's 7B model"},
				{ID: "codellama", Description: "Code-optimized Llama model"},
				{ID: "neural-chat", Description: "Intel's Neural Chat model"},
			},
		},
		Group{
			Provider: ProviderHuggingFace,
			Entries: []Entry{
				{
					ID:          "meta-llama/Llama-2-7b-chat-hf",
					Description: "Llama 2 7B Chat on Hugging Face",
					RequiresKey: true,
				},
				{
					ID:          "microsoft/DialoGPT-medium",
					Description: "Microsoft's DialoGPT medium model",
					RequiresKey: true,
				},
			},
		},
	)
}

// Resolve returns the catalog entry for a model id.
// Groups are scanned in order, then entries within a group; the first match wins.
func (r *Registry) Resolve(id string) (Entry, error) {
	for _, g := range r.groups {
		for _, e := range g.Entries {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

// ResolveProvider returns the provider serving a model id.
func (r *Registry) ResolveProvider(id string) (Provider, error) {
	e, err := r.Resolve(id)
	if err != nil {
		return "", err
	}
	return e.Provider, nil
}

// Groups returns a copy of the provider groups in display order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		entries := make([]Entry, len(g.Entries))
		copy(entries, g.Entries)
		out[i] = Group{Provider: g.Provider, Entries: entries}
	}
	return out
}

// Group returns the entries for one provider, or nil if the provider has no group.
func (r *Registry) Group(p Provider) []Entry {
	for _, g := range r.groups {
		if g.Provider == p {
			entries := make([]Entry, len(g.Entries))
			copy(entries, g.Entries)
			return entries
		}
	}
	return nil
}

// Entries returns every entry flattened in display order.
// Menu numbers are 1-based positions in this slice.
func (r *Registry) Entries() []Entry {
	var out []Entry
	for _, g := range r.groups {
		out = append(out, g.Entries...)
	}
	return out
}

// Validate checks the uniqueness invariant and that every group uses a known provider.
func (r *Registry) Validate() error {
	seen := make(map[string]Provider)
	for _, g := range r.groups {
		if !g.Provider.IsValid() {
			return fmt.Errorf("unknown provider %q", g.Provider)
		}
		for _, e := range g.Entries {
			if e.ID == "" {
				return fmt.Errorf("provider %s: model with empty id", g.Provider)
			}
			if !e.CallStyle.IsValid() {
				return fmt.Errorf("model %s: unknown call style %q", e.ID, e.CallStyle)
			}
			if prev, ok := seen[e.ID]; ok {
				return fmt.Errorf("model %s listed under both %s and %s", e.ID, prev, g.Provider)
			}
			seen[e.ID] = g.Provider
		}
	}
	return nil
}
