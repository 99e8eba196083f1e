package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogConfig is the YAML structure of a model catalog file.
//
//	groups:
//	  - provider: ollama
//	    models:
//	      - id: llama3
//	        description: Meta's Llama 3
type CatalogConfig struct {
	Groups []Group `yaml:"groups"`
}

// LoadFromFile loads a registry from a YAML catalog file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a registry from YAML data.
// Accepts either a full settings document with a "models" key or just the catalog.
func LoadFromYAML(data []byte) (*Registry, error) {
	var wrapped struct {
		Models *CatalogConfig `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Models != nil && len(wrapped.Models.Groups) > 0 {
		return registryFromConfig(wrapped.Models)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return registryFromConfig(&cfg)
}

// registryFromConfig converts a CatalogConfig to a validated Registry.
func registryFromConfig(cfg *CatalogConfig) (*Registry, error) {
	if len(cfg.Groups) == 0 {
		return nil, fmt.Errorf("catalog has no provider groups")
	}

	r := NewRegistry(cfg.Groups...)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return r, nil
}

// SaveToFile writes the registry as a YAML catalog.
func (r *Registry) SaveToFile(path string) error {
	data, err := yaml.Marshal(&CatalogConfig{Groups: r.Groups()})
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write catalog file: %w", err)
	}

	return nil
}
