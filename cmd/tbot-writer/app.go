package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/interspecifics/Tbot-writer/config"
	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/llm/providers"
	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/prompt"
	"github.com/interspecifics/Tbot-writer/shell"
	"github.com/interspecifics/Tbot-writer/source"
	"github.com/interspecifics/Tbot-writer/telemetry"
)

// App wires settings to the registry, profiles, references and dispatcher.
type App struct {
	cfg    *config.Config
	loader *config.Loader
	logger *slog.Logger

	registry   *model.Registry
	profiles   *profile.Store
	styles     prompt.StyleTable
	dispatcher *llm.Dispatcher
	refs       *source.Loader
	ollama     *providers.OllamaProvider

	shutdowns []telemetry.ShutdownFunc
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, loader *config.Loader, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := model.NewDefaultRegistry()
	if cfg.Paths.ModelCatalog != "" {
		r, err := model.LoadFromFile(cfg.Paths.ModelCatalog)
		if err != nil {
			return nil, fmt.Errorf("load model catalog: %w", err)
		}
		registry = r
		logger.Debug("Loaded model catalog", "path", cfg.Paths.ModelCatalog, "models", len(r.Entries()))
	}

	profiles := profile.NewStore(cfg.Paths.Personas, cfg.Paths.Elements, logger)
	styles := prompt.NewStyleTable(cfg.Styles)

	dispatcher := llm.NewDispatcher(registry, prompt.NewComposer(styles, profiles), buildProviders(cfg),
		llm.WithLogger(logger))

	refs := source.NewLoader(cfg.Paths.References,
		source.WithPatterns(cfg.Paths.Patterns...),
		source.WithLogger(logger))

	return &App{
		cfg:        cfg,
		loader:     loader,
		logger:     logger,
		registry:   registry,
		profiles:   profiles,
		styles:     styles,
		dispatcher: dispatcher,
		refs:       refs,
		ollama:     newOllama(cfg),
	}, nil
}

// buildProviders creates the adapter table from the current settings.
func buildProviders(cfg *config.Config) llm.ProviderTable {
	opts := providers.Options{Timeout: cfg.LLM.Timeout}
	return providers.NewTable(providers.Config{
		OpenAI: providers.OpenAIConfig{
			APIKey:  cfg.Credentials.OpenAIAPIKey,
			BaseURL: cfg.Providers.OpenAIBaseURL,
			Options: opts,
		},
		Ollama: providers.OllamaConfig{
			BaseURL: cfg.Providers.OllamaURL,
			Options: opts,
		},
		HuggingFace: providers.HuggingFaceConfig{
			APIKey:  cfg.Credentials.HuggingFaceAPIKey,
			BaseURL: cfg.Providers.HuggingFaceURL,
			Options: opts,
		},
	})
}

// newOllama creates the daemon client used for installed-model discovery.
// Discovery uses a short timeout so menus stay responsive when the daemon is down.
func newOllama(cfg *config.Config) *providers.OllamaProvider {
	return providers.NewOllamaProvider(providers.OllamaConfig{
		BaseURL: cfg.Providers.OllamaURL,
		Options: providers.Options{Timeout: 3 * time.Second},
	})
}

// StartTelemetry enables trace export and the metrics endpoint when configured.
func (a *App) StartTelemetry(ctx context.Context) error {
	tc := a.cfg.Telemetry

	shutdown, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		ServiceName: tc.ServiceName,
		Endpoint:    tc.OTLPEndpoint,
		Insecure:    tc.Insecure,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdowns = append(a.shutdowns, shutdown)

	if tc.MetricsAddr != "" {
		srv, err := telemetry.StartMetricsServer(tc.MetricsAddr, a.logger)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		a.shutdowns = append(a.shutdowns, srv.Shutdown)
	}
	return nil
}

// Shutdown flushes telemetry.
func (a *App) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			a.logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}
	a.shutdowns = nil
}

// Write runs one dispatch with the given selections and the current references.
func (a *App) Write(ctx context.Context, req llm.DispatchRequest) (*llm.Result, error) {
	materials, err := a.refs.Load()
	if err != nil {
		return nil, fmt.Errorf("load reference materials: %w", err)
	}
	req.Materials = materials
	a.applySampling(&req)
	return a.dispatcher.Dispatch(ctx, req)
}

// Compose returns the prompt Write would send.
func (a *App) Compose(req llm.DispatchRequest) (string, error) {
	materials, err := a.refs.Load()
	if err != nil {
		return "", fmt.Errorf("load reference materials: %w", err)
	}
	req.Materials = materials
	return a.dispatcher.Compose(req), nil
}

func (a *App) applySampling(req *llm.DispatchRequest) {
	if req.MaxTokens == 0 {
		req.MaxTokens = a.cfg.LLM.MaxTokens
	}
	if req.Temperature == nil {
		t := a.cfg.LLM.Temperature
		req.Temperature = &t
	}
}

// RunShell runs the interactive loop with file watchers on the reference
// folder and the profile files.
func (a *App) RunShell(ctx context.Context, in io.Reader, out io.Writer) error {
	created, err := profile.EnsureFiles(a.cfg.Paths.Personas, a.cfg.Paths.Elements)
	if err != nil {
		a.logger.Warn("Could not write default profile files", "error", err)
	}
	for _, path := range created {
		a.logger.Info("Created profile file", "path", path)
	}
	if len(created) > 0 {
		a.profiles.Reload()
	}

	refWatcher := a.startWatcher(ctx, func() (*source.Watcher, error) {
		return source.NewReferenceWatcher(a.refs)
	})
	proWatcher := a.startWatcher(ctx, a.newProfileWatcher)

	var saver shell.Saver
	if a.loader != nil {
		saver = a.loader
	}

	sh := shell.New(shell.Deps{
		Config:           a.cfg,
		Saver:            saver,
		Dispatcher:       a.dispatcher,
		Adapters:         buildProviders,
		Profiles:         a.profiles,
		Styles:           a.styles,
		References:       a.refs,
		ReferenceWatcher: refWatcher,
		ProfileWatcher:   proWatcher,
		Installed:        a.ollama,
		In:               in,
		Out:              out,
		Logger:           a.logger,
	})

	err = sh.Run(ctx)

	for _, w := range []*source.Watcher{refWatcher, proWatcher} {
		if w != nil {
			_ = w.Stop()
		}
	}
	return err
}

// newProfileWatcher watches the directory holding the persona file for
// changes to either profile file.
func (a *App) newProfileWatcher() (*source.Watcher, error) {
	personaPath, elementsPath := a.profiles.Paths()
	dir := filepath.Dir(personaPath)

	names := map[string]bool{filepath.Base(personaPath): true}
	if filepath.Dir(elementsPath) == dir {
		names[filepath.Base(elementsPath)] = true
	}

	return source.NewWatcher(dir, func(rel string) bool { return names[rel] }, a.logger)
}

// startWatcher creates and starts a watcher. Watching is best effort; on
// failure the shell still works with manual reload commands.
func (a *App) startWatcher(ctx context.Context, create func() (*source.Watcher, error)) *source.Watcher {
	w, err := create()
	if err != nil {
		a.logger.Warn("File watching disabled", "error", err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		a.logger.Warn("File watching disabled", "error", err)
		_ = w.Stop()
		return nil
	}
	return w
}
