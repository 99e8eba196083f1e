package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "tbot-writer.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/tbot-writer"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. TBOT_DEFAULTS_MODEL.
	EnvPrefix = "TBOT"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger         *slog.Logger
	userConfigPath string
	workDir        string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithUserConfigPath overrides ~/.config/tbot-writer/config.yaml.
func WithUserConfigPath(path string) LoaderOption {
	return func(l *Loader) {
		l.userConfigPath = path
	}
}

// WithWorkDir sets the directory the project config search starts from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	if l.userConfigPath == "" {
		l.userConfigPath = defaultUserConfigPath()
	}
	if l.workDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			l.workDir = cwd
		}
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/tbot-writer/config.yaml)
// 3. Project config (tbot-writer.yaml in current or parent directories)
// 4. Environment variables (TBOT_SECTION_KEY)
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if l.userConfigPath != "" {
		if err := l.mergeFile(v, l.userConfigPath, "user"); err != nil {
			return nil, err
		}
	}

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if err := l.mergeFile(v, projectConfigPath, "project"); err != nil {
			return nil, err
		}
	} else {
		l.logger.Debug("No project config found")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional provider variables are honoured after the prefixed ones.
	_ = v.BindEnv("credentials.openai_api_key", EnvPrefix+"_CREDENTIALS_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("credentials.huggingface_api_key", EnvPrefix+"_CREDENTIALS_HUGGINGFACE_API_KEY", "HUGGINGFACE_API_KEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// mergeFile merges one YAML layer into v. A missing file is skipped.
func (l *Loader) mergeFile(v *viper.Viper, path, layer string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s config %s: %w", layer, path, err)
	}

	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse %s config %s: %w", layer, path, err)
	}

	l.logger.Debug("Loaded config", slog.String("layer", layer), slog.String("path", path))
	return nil
}

// UpdateUserConfig applies mutate to the user config file alone and writes it
// back in full. Project files, environment overrides and flags are not
// persisted. A missing file starts from defaults.
func (l *Loader) UpdateUserConfig(mutate func(*Config)) error {
	if l.userConfigPath == "" {
		return fmt.Errorf("no user config path")
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(l.userConfigPath); err == nil {
		loaded, err := LoadFromFile(l.userConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat user config: %w", err)
	}

	mutate(cfg)

	if err := cfg.SaveToFile(l.userConfigPath); err != nil {
		return err
	}
	l.logger.Info("Saved settings", slog.String("path", l.userConfigPath))
	return nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	if l.userConfigPath == "" {
		return fmt.Errorf("no user config path")
	}

	if _, err := os.Stat(l.userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(l.userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", l.userConfigPath))
	return nil
}

// UserConfigPath returns the path settings are saved to.
func (l *Loader) UserConfigPath() string {
	return l.userConfigPath
}

func defaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for tbot-writer.yaml in the work dir and its parents
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// setDefaults registers every key so environment overrides resolve.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("credentials.openai_api_key", d.Credentials.OpenAIAPIKey)
	v.SetDefault("credentials.huggingface_api_key", d.Credentials.HuggingFaceAPIKey)

	v.SetDefault("providers.openai_base_url", d.Providers.OpenAIBaseURL)
	v.SetDefault("providers.ollama_url", d.Providers.OllamaURL)
	v.SetDefault("providers.huggingface_url", d.Providers.HuggingFaceURL)

	v.SetDefault("defaults.model", d.Defaults.Model)
	v.SetDefault("defaults.style", d.Defaults.Style)
	v.SetDefault("defaults.persona", d.Defaults.Persona)

	v.SetDefault("paths.personas", d.Paths.Personas)
	v.SetDefault("paths.elements", d.Paths.Elements)
	v.SetDefault("paths.references", d.Paths.References)
	v.SetDefault("paths.patterns", d.Paths.Patterns)
	v.SetDefault("paths.model_catalog", d.Paths.ModelCatalog)

	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)

	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.metrics_addr", d.Telemetry.MetricsAddr)
}
