// Package config provides settings loading and persistence for tbot-writer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete tbot-writer settings file.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Defaults    DefaultsConfig    `yaml:"defaults" mapstructure:"defaults"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`

	// Styles adds or overrides writing styles by key.
	Styles map[string]string `yaml:"styles,omitempty" mapstructure:"styles"`
}

// CredentialsConfig holds provider API keys.
type CredentialsConfig struct {
	OpenAIAPIKey      string `yaml:"openai_api_key" mapstructure:"openai_api_key"`
	HuggingFaceAPIKey string `yaml:"huggingface_api_key" mapstructure:"huggingface_api_key"`
}

// ProvidersConfig holds provider endpoints. Empty values use each adapter's default.
type ProvidersConfig struct {
	OpenAIBaseURL  string `yaml:"openai_base_url" mapstructure:"openai_base_url"`
	OllamaURL      string `yaml:"ollama_url" mapstructure:"ollama_url"`
	HuggingFaceURL string `yaml:"huggingface_url" mapstructure:"huggingface_url"`
}

// DefaultsConfig holds the session's initial selections.
type DefaultsConfig struct {
	Model   string `yaml:"model" mapstructure:"model"`
	Style   string `yaml:"style" mapstructure:"style"`
	Persona string `yaml:"persona" mapstructure:"persona"`
}

// PathsConfig locates the user-editable files.
type PathsConfig struct {
	Personas   string   `yaml:"personas" mapstructure:"personas"`
	Elements   string   `yaml:"elements" mapstructure:"elements"`
	References string   `yaml:"references" mapstructure:"references"`
	Patterns   []string `yaml:"patterns" mapstructure:"patterns"`

	// ModelCatalog is an optional YAML catalog replacing the built-in model list.
	ModelCatalog string `yaml:"model_catalog,omitempty" mapstructure:"model_catalog"`
}

// LLMConfig configures provider calls.
type LLMConfig struct {
	// Timeout bounds every provider call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxTokens limits the continuation length.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Temperature controls randomness (0.0-2.0).
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// TelemetryConfig configures tracing export and the metrics endpoint.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// OTLPEndpoint enables trace export when set (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure" mapstructure:"insecure"`
	// MetricsAddr enables the Prometheus endpoint when set (e.g. ":9464").
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Model:   "neural-chat",
			Style:   "sci-fi",
			Persona: "cyra",
		},
		Paths: PathsConfig{
			Personas:   "personas.ini",
			Elements:   "elements.txt",
			References: "reference_materials",
			Patterns:   []string{"*.{pdf,docx,txt,md,markdown,html,htm}"},
		},
		LLM: LLMConfig{
			Timeout:     60 * time.Second,
			MaxTokens:   300,
			Temperature: 0.3,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "tbot-writer",
			Insecure:    true,
		},
	}
}

// MinTimeout is the shortest accepted provider call timeout. A bare number in
// the settings file decodes as nanoseconds, which this bound rejects.
const MinTimeout = time.Second

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Defaults.Model == "" {
		return fmt.Errorf("defaults.model is required")
	}
	if c.Defaults.Style == "" {
		return fmt.Errorf("defaults.style is required")
	}
	if c.Paths.References == "" {
		return fmt.Errorf("paths.references is required")
	}
	for _, p := range c.Paths.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("paths.patterns: invalid pattern %q", p)
		}
	}
	if c.LLM.Timeout < MinTimeout {
		return fmt.Errorf("llm.timeout %s is below %s; use a duration with a unit, e.g. \"60s\"", c.LLM.Timeout, MinTimeout)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile writes the whole configuration to a YAML file.
// The file may hold credentials, so it is written owner-only.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Credentials
	if other.Credentials.OpenAIAPIKey != "" {
		c.Credentials.OpenAIAPIKey = other.Credentials.OpenAIAPIKey
	}
	if other.Credentials.HuggingFaceAPIKey != "" {
		c.Credentials.HuggingFaceAPIKey = other.Credentials.HuggingFaceAPIKey
	}

	// Providers
	if other.Providers.OpenAIBaseURL != "" {
		c.Providers.OpenAIBaseURL = other.Providers.OpenAIBaseURL
	}
	if other.Providers.OllamaURL != "" {
		c.Providers.OllamaURL = other.Providers.OllamaURL
	}
	if other.Providers.HuggingFaceURL != "" {
		c.Providers.HuggingFaceURL = other.Providers.HuggingFaceURL
	}

	// Defaults
	if other.Defaults.Model != "" {
		c.Defaults.Model = other.Defaults.Model
	}
	if other.Defaults.Style != "" {
		c.Defaults.Style = other.Defaults.Style
	}
	if other.Defaults.Persona != "" {
		c.Defaults.Persona = other.Defaults.Persona
	}

	// Paths
	if other.Paths.Personas != "" {
		c.Paths.Personas = other.Paths.Personas
	}
	if other.Paths.Elements != "" {
		c.Paths.Elements = other.Paths.Elements
	}
	if other.Paths.References != "" {
		c.Paths.References = other.Paths.References
	}
	if len(other.Paths.Patterns) > 0 {
		c.Paths.Patterns = other.Paths.Patterns
	}
	if other.Paths.ModelCatalog != "" {
		c.Paths.ModelCatalog = other.Paths.ModelCatalog
	}

	// LLM
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}
	if other.LLM.MaxTokens != 0 {
		c.LLM.MaxTokens = other.LLM.MaxTokens
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}

	// Telemetry
	if other.Telemetry.ServiceName != "" {
		c.Telemetry.ServiceName = other.Telemetry.ServiceName
	}
	if other.Telemetry.OTLPEndpoint != "" {
		c.Telemetry.OTLPEndpoint = other.Telemetry.OTLPEndpoint
	}
	if other.Telemetry.MetricsAddr != "" {
		c.Telemetry.MetricsAddr = other.Telemetry.MetricsAddr
	}

	// Styles
	if len(other.Styles) > 0 {
		if c.Styles == nil {
			c.Styles = make(map[string]string, len(other.Styles))
		}
		for k, v := range other.Styles {
			c.Styles[k] = v
		}
	}
}
