// Package main provides the tbot-writer binary entry point.
// tbot-writer continues a narrative fragment in a chosen style and voice
// using a managed API, a local model daemon or a hosted inference endpoint.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/interspecifics/Tbot-writer/config"
	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "tbot-writer"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	model      string
	style      string
	persona    string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Interactive text co-writing assistant",
		Long: `tbot-writer continues your narrative in a chosen style, with an optional
writer persona, world-building elements and style reference documents.

Run without a subcommand for the interactive shell.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, &g)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Settings file (default ~/.config/tbot-writer/config.yaml)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVarP(&g.model, "model", "m", "", "Model id (overrides settings)")
	pf.StringVarP(&g.style, "style", "s", "", "Writing style (overrides settings)")
	pf.StringVarP(&g.persona, "persona", "p", "", "Writer persona key (overrides settings)")

	cmd.AddCommand(modelsCmd(&g), writeCmd(&g), promptCmd(&g), versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func modelsCmd(g *globalFlags) *cobra.Command {
	var (
		installed bool
		export    string
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model catalog",
		Long: `List the model catalog.

With --export the active catalog is written as YAML instead. Edit the file and
point paths.model_catalog at it to replace the built-in list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, g)
			if err != nil {
				return err
			}

			if export != "" {
				if err := app.registry.SaveToFile(export); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d models to %s\n", len(app.registry.Entries()), export)
				return nil
			}

			present := map[string]bool{}
			if installed {
				for _, e := range app.registry.ListInstalled(cmd.Context(), model.ProviderOllama, app.ollama, app.logger) {
					present[e.ID] = true
				}
			}

			printModels(cmd.OutOrStdout(), app.registry, present)
			return nil
		},
	}

	cmd.Flags().BoolVar(&installed, "installed", false, "Mark models installed in the local daemon")
	cmd.Flags().StringVar(&export, "export", "", "Write the active catalog to this YAML file")
	return cmd
}

func writeCmd(g *globalFlags) *cobra.Command {
	var elements []string

	cmd := &cobra.Command{
		Use:   "write [text]",
		Short: "Continue text once and print the result",
		Long:  "Continue the given text, or standard input when no text is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, g)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if err := app.StartTelemetry(ctx); err != nil {
				return err
			}
			defer app.Shutdown(5 * time.Second)

			res, err := app.Write(ctx, app.request(text, elements))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&elements, "elements", "e", nil, "Element keys to include (comma-separated)")
	return cmd
}

func promptCmd(g *globalFlags) *cobra.Command {
	var elements []string

	cmd := &cobra.Command{
		Use:   "prompt [text]",
		Short: "Print the composed prompt without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, g)
			if err != nil {
				return err
			}
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			out, err := app.Compose(app.request(text, elements))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&elements, "elements", "e", nil, "Element keys to include (comma-separated)")
	return cmd
}

func runShell(cmd *cobra.Command, g *globalFlags) error {
	app, err := setup(cmd, g)
	if err != nil {
		return err
	}

	if app.loader != nil {
		if err := app.loader.EnsureUserConfig(); err != nil {
			app.logger.Warn("Could not create user settings file", "error", err)
		}
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := app.StartTelemetry(ctx); err != nil {
		return err
	}
	defer app.Shutdown(5 * time.Second)

	return app.RunShell(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// setup configures logging, loads settings and builds the App.
func setup(cmd *cobra.Command, g *globalFlags) (*App, error) {
	logger := newLogger(g.logLevel, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	var opts []config.LoaderOption
	if g.configPath != "" {
		opts = append(opts, config.WithUserConfigPath(g.configPath))
	}
	loader := config.NewLoader(logger, opts...)

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(&config.Config{
		Defaults: config.DefaultsConfig{
			Model:   g.model,
			Style:   g.style,
			Persona: g.persona,
		},
	})

	return NewApp(cfg, loader, logger)
}

// request builds a dispatch request from the session defaults.
func (a *App) request(text string, elements []string) llm.DispatchRequest {
	return llm.DispatchRequest{
		Text:     text,
		Style:    a.cfg.Defaults.Style,
		Persona:  a.cfg.Defaults.Persona,
		Model:    a.cfg.Defaults.Model,
		Elements: elements,
	}
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// readText returns the joined args, or standard input when there are none.
func readText(cmd *cobra.Command, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text given")
	}
	return text, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printModels prints the catalog grouped by provider.
func printModels(w io.Writer, registry *model.Registry, installed map[string]bool) {
	n := 0
	for _, g := range registry.Groups() {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(string(g.Provider)))
		for _, e := range g.Entries {
			n++
			key := " "
			if e.RequiresKey {
				key = "key"
			}
			mark := ""
			if installed[e.ID] {
				mark = " (installed)"
			}
			fmt.Fprintf(w, "  %2d. %-32s %-3s %s%s\n", n, e.ID, key, e.Description, mark)
		}
	}
}
