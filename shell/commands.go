package shell

import (
	"context"
	"fmt"
	"strings"
)

func (s *Shell) cmdNewStyle() {
	s.println("\n" + heading("CHANGING STYLE AND ELEMENTS", 30))
	s.printf("Available styles: %s\n", strings.Join(s.styles.Keys(), ", "))

	style, ok := s.readLine("Choose a new style: ")
	if !ok {
		return
	}
	if style != "" {
		s.session.Style = s.checkStyle(style)
	}

	if !s.askElements() {
		return
	}
	s.println(okStyle.Render("Style and elements updated!"))
}

func (s *Shell) cmdNewPersona() {
	s.println("\n" + heading("CHANGING WRITER CHARACTER", 30))
	s.showPersonas()

	input, ok := s.readLine("Choose a writer character (enter number, name, or 'none'): ")
	if !ok {
		return
	}
	if key, ok := s.selectPersona(input); ok {
		s.session.Persona = key
		s.println(okStyle.Render("Character updated to: " + s.personaName(key)))
		return
	}
	s.println("Invalid character selection. Keeping current character.")
}

func (s *Shell) cmdNewModel(ctx context.Context) {
	s.println("\n" + heading("CHANGING MODEL", 30))
	s.showModels(ctx)

	input, ok := s.readLine("Choose a new model (enter number or name): ")
	if !ok {
		return
	}
	if input == "" {
		s.println("Keeping current model.")
		return
	}
	if id, ok := s.selectModel(input); ok {
		s.session.Model = id
		s.println(okStyle.Render("Model updated to: " + id))
		return
	}
	s.println("Invalid model selection. Keeping current model.")
}

func (s *Shell) cmdReloadProfiles() {
	if s.profiles == nil {
		return
	}
	s.println("\n" + heading("RELOADING PROFILES", 30))

	snap := s.profiles.Reload()
	s.printf("Reloaded %d persona(s) and %d element(s)\n", len(snap.Personas()), len(snap.Elements()))

	if s.session.Persona != "" {
		if _, ok := snap.Persona(s.session.Persona); !ok {
			s.println(mutedStyle.Render(fmt.Sprintf("Character %q is no longer defined and will be skipped.", s.session.Persona)))
		}
	}
}

func (s *Shell) cmdStatus() {
	s.println("\n" + heading("STATUS", 30))
	s.printf("Model:      %s\n", s.session.Model)
	s.printf("Style:      %s\n", s.session.Style)
	s.printf("Character:  %s\n", s.personaName(s.session.Persona))
	if len(s.session.Elements) > 0 {
		s.printf("Elements:   %s\n", strings.Join(s.session.Elements, ", "))
	} else {
		s.println("Elements:   none")
	}
	s.printf("References: %d loaded\n", len(s.materials))
	if s.refs != nil {
		s.printf("Folder:     %s\n", s.refs.Dir())
	}
}

func (s *Shell) cmdHelp() {
	s.println("Available commands:")
	s.println("  new style        - Change style and elements")
	s.println("  new character    - Change writer character (alias: new persona)")
	s.println("  new model        - Change model")
	s.println("  reload refs      - Reload reference materials")
	s.println("  reload profiles  - Reload personas and elements from disk")
	s.println("  models           - List models")
	s.println("  refs             - List reference materials")
	s.println("  status           - Show current selections")
	s.println("  help             - Show this help")
	s.println("  quit/exit        - Exit")
	s.println("")
	s.println("Anything else is sent as text to continue.")
}
