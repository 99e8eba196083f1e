// Package shell implements the interactive co-writing loop.
//
// The shell owns the session selections (style, model, persona, elements)
// and the loaded reference materials. It reads one line at a time, handles
// built-in commands, and dispatches everything else as narrative text.
// All work is synchronous; file watchers only mark data stale and the
// reload happens before the next prompt is read.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/interspecifics/Tbot-writer/config"
	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/prompt"
	"github.com/interspecifics/Tbot-writer/source"
)

// Saver persists a change to the user settings file.
type Saver interface {
	UpdateUserConfig(mutate func(*config.Config)) error
}

// AdapterFactory builds the provider table from settings.
type AdapterFactory func(cfg *config.Config) llm.ProviderTable

// Deps are the collaborators a Shell drives.
type Deps struct {
	Config     *config.Config
	Saver      Saver
	Dispatcher *llm.Dispatcher
	Adapters   AdapterFactory
	Profiles   *profile.Store
	Styles     prompt.StyleTable
	References *source.Loader

	// Optional.
	ReferenceWatcher *source.Watcher
	ProfileWatcher   *source.Watcher
	Installed        model.InstalledLister

	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

// Session holds the current selections.
type Session struct {
	Style    string
	Model    string
	Persona  string
	Elements []string
}

// Shell is the interactive loop.
type Shell struct {
	cfg        *config.Config
	saver      Saver
	dispatcher *llm.Dispatcher
	adapters   AdapterFactory
	registry   *model.Registry
	profiles   *profile.Store
	styles     prompt.StyleTable
	refs       *source.Loader
	refWatcher *source.Watcher
	proWatcher *source.Watcher
	installed  model.InstalledLister

	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger

	session   Session
	materials []source.Material
	modelMenu []model.Entry
}

// New creates a shell. Session defaults come from the settings.
func New(d Deps) *Shell {
	if d.Config == nil {
		d.Config = config.DefaultConfig()
	}
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Styles == nil {
		d.Styles = prompt.DefaultStyles()
	}

	return &Shell{
		cfg:        d.Config,
		saver:      d.Saver,
		dispatcher: d.Dispatcher,
		adapters:   d.Adapters,
		registry:   d.Dispatcher.Registry(),
		profiles:   d.Profiles,
		styles:     d.Styles,
		refs:       d.References,
		refWatcher: d.ReferenceWatcher,
		proWatcher: d.ProfileWatcher,
		installed:  d.Installed,
		in:         newScanner(d.In),
		out:        d.Out,
		logger:     d.Logger,
		session: Session{
			Style:   d.Config.Defaults.Style,
			Model:   d.Config.Defaults.Model,
			Persona: d.Config.Defaults.Persona,
		},
	}
}

// Session returns a copy of the current selections.
func (s *Shell) Session() Session {
	out := s.session
	out.Elements = append([]string(nil), s.session.Elements...)
	return out
}

// Materials returns the loaded reference materials.
func (s *Shell) Materials() []source.Material {
	return s.materials
}

// Run shows the menus, collects the initial selections and loops until
// quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	s.println(heading("Tbot Writer", ruleWidth))
	s.printf("Available styles: %s\n", strings.Join(s.styles.Keys(), ", "))

	s.showModels(ctx)
	s.showReferences()
	s.reloadReferences(false)

	if !s.setup() {
		return nil
	}

	s.println("")
	s.println(ruleStyle.Render(strings.Repeat("=", 50)))
	s.printf("Ready for prompts! Using model: %s\n", s.session.Model)
	if n := len(s.materials); n > 0 {
		s.printf("Loaded %d reference material(s)\n", n)
	}
	s.println(mutedStyle.Render("Type 'help' for commands, 'quit' to exit."))
	s.println(ruleStyle.Render(strings.Repeat("=", 50)))

	return s.loop(ctx)
}

// setup collects the initial style, model, persona and elements.
// It returns false on end of input.
func (s *Shell) setup() bool {
	style, ok := s.readLine(fmt.Sprintf("\nChoose a style (default: %s): ", s.session.Style))
	if !ok {
		return false
	}
	if style != "" {
		s.session.Style = s.checkStyle(style)
	}

	s.printf("\nChoose a model (enter number or name, default: %s):\n", s.session.Model)
	input, ok := s.readLine("")
	if !ok {
		return false
	}
	if input == "" {
		input = s.session.Model
	}
	if id, ok := s.selectModel(input); ok {
		s.session.Model = id
		s.printf("Selected model: %s\n", id)
	} else {
		s.session.Model = s.cfg.Defaults.Model
		s.printf("Using default model: %s\n", s.session.Model)
	}

	s.showPersonas()
	s.printf("Choose a writer character (enter number or name, default: %s):\n", s.session.Persona)
	input, ok = s.readLine("")
	if !ok {
		return false
	}
	if input == "" {
		input = s.session.Persona
	}
	if key, ok := s.selectPersona(input); ok {
		s.session.Persona = key
		s.printf("Selected: %s\n", s.personaName(key))
	} else {
		s.session.Persona = s.cfg.Defaults.Persona
		s.printf("Using default character: %s\n", s.session.Persona)
	}

	return s.askElements()
}

// loop reads prompts until quit or end of input.
func (s *Shell) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.checkWatchers()

		s.println("\n" + ruleStyle.Render(strings.Repeat("-", 30)))
		line, ok := s.readLine("Enter your prompt: ")
		if !ok {
			s.println("Goodbye! 👋")
			return nil
		}

		if line == "" {
			s.println("Please enter a prompt or type 'quit' to exit.")
			continue
		}

		if quit := s.handle(ctx, line); quit {
			s.println("Goodbye! 👋")
			return nil
		}
	}
}

// handle runs one command or dispatch. It returns true when the user quits.
func (s *Shell) handle(ctx context.Context, line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit":
		return true
	case "new style":
		s.cmdNewStyle()
	case "new character", "new persona":
		s.cmdNewPersona()
	case "new model":
		s.cmdNewModel(ctx)
	case "reload refs":
		s.println("\n" + heading("RELOADING REFERENCE MATERIALS", 30))
		s.reloadReferences(true)
	case "reload profiles":
		s.cmdReloadProfiles()
	case "models":
		s.showModels(ctx)
	case "refs":
		s.showReferences()
	case "status":
		s.cmdStatus()
	case "help":
		s.cmdHelp()
	default:
		s.write(ctx, line)
	}
	return false
}

// write dispatches text with the current selections.
func (s *Shell) write(ctx context.Context, text string) {
	if entry, err := s.registry.Resolve(s.session.Model); err == nil {
		if !s.ensureCredential(entry) {
			s.println("Request cancelled.")
			return
		}
	}

	temperature := s.cfg.LLM.Temperature
	res, err := s.dispatcher.Dispatch(ctx, llm.DispatchRequest{
		Text:        text,
		Style:       s.session.Style,
		Elements:    s.session.Elements,
		Persona:     s.session.Persona,
		Model:       s.session.Model,
		Materials:   s.materials,
		MaxTokens:   s.cfg.LLM.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		s.printError(err)
		s.println("Please try again.")
		return
	}

	s.println("\n" + okStyle.Render("📝 AI Continuation:") + "\n")
	s.println(res.Text)
}

// reloadReferences re-reads the reference folder. On error the previous
// materials are kept.
func (s *Shell) reloadReferences(announce bool) {
	if s.refs == nil {
		return
	}

	materials, err := s.refs.Load()
	if err != nil {
		s.printError(fmt.Errorf("load reference materials: %w", err))
		return
	}
	s.materials = materials

	for _, m := range materials {
		s.logger.Debug("Loaded reference material", "file", m.Filename, "chars", len([]rune(m.Content)))
	}
	if announce {
		s.printf("Reloaded %d reference material(s)\n", len(materials))
	}
}

// checkWatchers applies pending file changes before the next prompt.
func (s *Shell) checkWatchers() {
	if s.refWatcher != nil && s.refWatcher.Changed() {
		s.reloadReferences(false)
		s.println(mutedStyle.Render(fmt.Sprintf("Reference folder changed, reloaded %d reference material(s)", len(s.materials))))
	}
	if s.proWatcher != nil && s.proWatcher.Changed() && s.profiles != nil {
		snap := s.profiles.Reload()
		s.println(mutedStyle.Render(fmt.Sprintf("Profiles changed, reloaded %d persona(s) and %d element(s)",
			len(snap.Personas()), len(snap.Elements()))))
	}
}

// newScanner reads lines of up to 1MB so long pasted passages fit.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// readLine prints label and reads one trimmed line. It returns false at end of input.
func (s *Shell) readLine(label string) (string, bool) {
	if label != "" {
		fmt.Fprint(s.out, label)
	}
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

// printError reports err as one line.
func (s *Shell) printError(err error) {
	s.println(errorStyle.Render("❌ Error: " + err.Error()))
	switch {
	case llm.IsModelNotFound(err):
		s.println(mutedStyle.Render("Type 'models' to list available models."))
	case llm.IsConfigurationError(err):
		s.println(mutedStyle.Render("Check your settings file: " + s.settingsHint()))
	}
}

func (s *Shell) settingsHint() string {
	if p, ok := s.saver.(interface{ UserConfigPath() string }); ok && p.UserConfigPath() != "" {
		return p.UserConfigPath()
	}
	return config.UserConfigDir + "/" + config.UserConfigFile
}
