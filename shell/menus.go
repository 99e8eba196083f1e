package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/interspecifics/Tbot-writer/config"
	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/source"
)

const personaPreviewRunes = 80

// showModels prints the numbered model menu and remembers its order.
func (s *Shell) showModels(ctx context.Context) {
	s.println("\n" + heading("AVAILABLE MODELS", ruleWidth))

	installed := map[string]bool{}
	if s.installed != nil {
		for _, e := range s.registry.ListInstalled(ctx, model.ProviderOllama, s.installed, s.logger) {
			installed[e.ID] = true
		}
	}

	s.modelMenu = nil
	for _, g := range s.registry.Groups() {
		s.println("\n" + subheading(strings.ToUpper(string(g.Provider))+" MODELS:"))
		for _, e := range g.Entries {
			s.modelMenu = append(s.modelMenu, e)

			marker := "✅"
			if e.RequiresKey {
				marker = "🔑"
			}
			suffix := ""
			if installed[e.ID] {
				suffix = okStyle.Render(" (installed)")
			}
			s.printf("%2d. %s %s%s\n", len(s.modelMenu), marker, e.ID, suffix)
			s.printf("     %s\n", mutedStyle.Render(e.Description))
		}
	}
	s.println("")
}

// selectModel resolves a menu number or model id and makes sure a required
// credential is present. It returns false for an invalid or cancelled choice.
func (s *Shell) selectModel(input string) (string, bool) {
	if len(s.modelMenu) == 0 {
		s.modelMenu = s.registry.Entries()
	}

	var entry model.Entry
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(s.modelMenu) {
			s.printf("Invalid model number: %d\n", n)
			return "", false
		}
		entry = s.modelMenu[n-1]
	} else {
		e, err := s.registry.Resolve(input)
		if err != nil {
			s.printf("Unknown model: %s\n", input)
			return "", false
		}
		entry = e
	}

	if !s.ensureCredential(entry) {
		return "", false
	}
	return entry.ID, true
}

// ensureCredential asks for a key when entry needs one and none is configured.
// Declining cancels. An accepted key is written to the user settings file
// and the adapters are rebuilt.
func (s *Shell) ensureCredential(entry model.Entry) bool {
	if !entry.RequiresKey {
		return true
	}
	key := credentialField(s.cfg, entry.Provider)
	if key == nil || !llm.IsPlaceholderCredential(*key) {
		return true
	}

	s.printf("🔑 %s requires an API key for %s.\n", entry.Provider, entry.ID)
	input, ok := s.readLine("Enter API key (or press Enter to cancel): ")
	if !ok || input == "" {
		s.println("Cancelled.")
		return false
	}
	if llm.IsPlaceholderCredential(input) {
		s.println("That looks like a placeholder, not a key. Cancelled.")
		return false
	}

	*key = input
	if s.saver != nil {
		err := s.saver.UpdateUserConfig(func(c *config.Config) {
			if f := credentialField(c, entry.Provider); f != nil {
				*f = input
			}
		})
		if err != nil {
			s.printError(fmt.Errorf("save settings: %w", err))
		} else {
			s.println(okStyle.Render("API key saved."))
		}
	}
	if s.adapters != nil {
		s.dispatcher.SetProviders(s.adapters(s.cfg))
	}
	return true
}

// credentialField returns the settings field holding the key for p, or nil.
func credentialField(cfg *config.Config, p model.Provider) *string {
	switch p {
	case model.ProviderOpenAI:
		return &cfg.Credentials.OpenAIAPIKey
	case model.ProviderHuggingFace:
		return &cfg.Credentials.HuggingFaceAPIKey
	default:
		return nil
	}
}

// showPersonas prints the numbered persona menu.
func (s *Shell) showPersonas() {
	s.println("\n" + heading("AVAILABLE WRITER CHARACTERS", ruleWidth))
	for i, p := range s.personas() {
		s.printf("%2d. %s\n", i+1, p.Name)
		s.printf("     %s...\n", mutedStyle.Render(source.Truncate(p.Personality, personaPreviewRunes)))
	}
	s.println("")
}

// selectPersona resolves a menu number, key or display name. "none" clears the persona.
func (s *Shell) selectPersona(input string) (string, bool) {
	if strings.EqualFold(input, "none") {
		return "", true
	}

	personas := s.personas()
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(personas) {
			s.printf("Invalid character number: %d\n", n)
			return "", false
		}
		return personas[n-1].Key, true
	}

	for _, p := range personas {
		if strings.EqualFold(p.Key, input) || strings.EqualFold(p.Name, input) {
			return p.Key, true
		}
	}
	return "", false
}

func (s *Shell) personaName(key string) string {
	if key == "" {
		return "none"
	}
	if s.profiles != nil {
		if p, ok := s.profiles.Snapshot().Persona(key); ok && p.Name != "" {
			return p.Name
		}
	}
	return key
}

func (s *Shell) personas() []profile.Persona {
	if s.profiles == nil {
		return nil
	}
	return s.profiles.Snapshot().Personas()
}

// checkStyle normalizes a style key and warns when it is unknown.
func (s *Shell) checkStyle(style string) string {
	key := strings.ToLower(strings.TrimSpace(style))
	if !s.styles.Has(key) {
		s.printf("Unknown style %q, the essay style will be used.\n", style)
	}
	return key
}

// askElements reads a comma-separated element list. It returns false at end of input.
func (s *Shell) askElements() bool {
	if s.profiles != nil {
		var keys []string
		for _, e := range s.profiles.Snapshot().Elements() {
			keys = append(keys, e.Key)
		}
		if len(keys) > 0 {
			s.printf("\nAvailable elements: %s\n", strings.Join(keys, ", "))
		}
	}

	input, ok := s.readLine("Enter custom elements to include (comma-separated, or press Enter for none): ")
	if !ok {
		return false
	}
	s.session.Elements = parseElements(input)
	return true
}

// parseElements splits a comma-separated list, dropping blanks.
func parseElements(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// showReferences lists the reference folder, creating it when missing.
func (s *Shell) showReferences() {
	if s.refs == nil {
		return
	}
	s.println("\n" + heading("REFERENCE MATERIALS", ruleWidth))

	created, err := s.refs.EnsureDir()
	if err != nil {
		s.printError(fmt.Errorf("reference folder: %w", err))
		return
	}
	if created {
		s.printf("No reference folder found. Created: %s\n", s.refs.Dir())
		s.println("Add PDF, DOCX, TXT, Markdown or HTML files to this folder for reference.")
		return
	}

	files, err := s.refs.List()
	if err != nil {
		s.printError(fmt.Errorf("list reference folder: %w", err))
		return
	}
	if len(files) == 0 {
		s.println("No reference materials found.")
		s.printf("Add PDF, DOCX, TXT, Markdown or HTML files to the '%s' folder.\n", s.refs.Dir())
		return
	}

	s.printf("Found %d reference material(s):\n", len(files))
	for i, f := range files {
		s.printf("%d. %s (%s bytes)\n", i+1, f.Name, formatBytes(f.Size))
	}
}

// formatBytes renders n with thousands separators.
func formatBytes(n int64) string {
	digits := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
