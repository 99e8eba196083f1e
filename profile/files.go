package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// ErrEmptyTable is returned when a profile file parses but defines nothing.
var ErrEmptyTable = errors.New("no entries defined")

// loadOptions accepts both "key: value" and "key = value", treats "#" and ";"
// lines as comments, leaves "#" inside values alone and skips lines that are
// not key/value pairs.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:          true,
	IgnoreInlineComment:      true,
	IgnoreContinuation:       true,
	SkipUnrecognizableLines:  true,
	KeyValueDelimiters:       ":=",
	KeyValueDelimiterOnWrite: ":",
}

// loadSources parses profile text. Values are free text, so a value that
// opens with a quote character is wrapped in backticks to stop ini from
// reading it as a quoted string. Triple-quoted values written by the
// encoder are left alone.
func loadSources(data []byte) (*ini.File, error) {
	return ini.LoadSources(loadOptions, quoteValues(data))
}

func quoteValues(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.ContainsRune("#;[", rune(trimmed[0])) {
			continue
		}

		idx := strings.IndexAny(line, loadOptions.KeyValueDelimiters)
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(strings.TrimRight(line[idx+1:], "\r"))
		if value == "" || !strings.ContainsRune("`\"'", rune(value[0])) {
			continue
		}
		if len(value) >= 6 && strings.HasPrefix(value, `"""`) && strings.HasSuffix(value, `"""`) {
			continue
		}

		lines[i] = line[:idx+1] + " `" + value + "`"
	}
	return []byte(strings.Join(lines, "\n"))
}

// ParsePersonas reads persona sections:
//
//	[cyra]
//	name: Cyra the Posthumanist
//	style: Dense yet playful
//
// Unknown fields are ignored. Sections with no known fields are dropped.
func ParsePersonas(data []byte) ([]Persona, error) {
	f, err := loadSources(data)
	if err != nil {
		return nil, fmt.Errorf("parse personas: %w", err)
	}

	var personas []Persona
	for _, sec := range f.Sections() {
		key := strings.TrimSpace(sec.Name())
		if key == ini.DefaultSection || key == "" {
			continue
		}

		var p Persona
		if err := sec.MapTo(&p); err != nil {
			return nil, fmt.Errorf("parse persona %q: %w", key, err)
		}
		if p.IsZero() {
			continue
		}
		p.Key = key
		personas = append(personas, p)
	}

	if len(personas) == 0 {
		return nil, fmt.Errorf("parse personas: %w", ErrEmptyTable)
	}
	return personas, nil
}

// ParseElements reads "key: description" lines outside any section.
func ParseElements(data []byte) ([]Element, error) {
	f, err := loadSources(data)
	if err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}

	var elements []Element
	for _, k := range f.Section(ini.DefaultSection).Keys() {
		desc := strings.TrimSpace(k.String())
		if desc == "" {
			continue
		}
		elements = append(elements, Element{Key: k.Name(), Description: desc})
	}

	if len(elements) == 0 {
		return nil, fmt.Errorf("parse elements: %w", ErrEmptyTable)
	}
	return elements, nil
}

// LoadPersonas reads a persona file.
func LoadPersonas(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return ParsePersonas(data)
}

// LoadElements reads an elements file.
func LoadElements(path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read elements file: %w", err)
	}
	return ParseElements(data)
}

// WritePersonas encodes personas in the persona file format.
func WritePersonas(w io.Writer, personas []Persona) error {
	f := ini.Empty(loadOptions)
	for _, p := range personas {
		sec, err := f.NewSection(p.Key)
		if err != nil {
			return fmt.Errorf("persona %q: %w", p.Key, err)
		}
		if err := sec.ReflectFrom(&p); err != nil {
			return fmt.Errorf("persona %q: %w", p.Key, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteElements encodes elements in the elements file format.
func WriteElements(w io.Writer, elements []Element) error {
	f := ini.Empty(loadOptions)
	sec := f.Section(ini.DefaultSection)
	for _, e := range elements {
		if _, err := sec.NewKey(e.Key, e.Description); err != nil {
			return fmt.Errorf("element %q: %w", e.Key, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// EnsureFiles writes the built-in tables to any profile file that does not exist yet.
// Returns the paths that were created.
func EnsureFiles(personaPath, elementsPath string) ([]string, error) {
	var created []string

	write := func(path string, encode func(io.Writer) error) error {
		if path == "" {
			return nil
		}
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}

		var buf bytes.Buffer
		if err := encode(&buf); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return err
		}
		created = append(created, path)
		return nil
	}

	if err := write(personaPath, func(w io.Writer) error { return WritePersonas(w, DefaultPersonas()) }); err != nil {
		return created, fmt.Errorf("write persona file: %w", err)
	}
	if err := write(elementsPath, func(w io.Writer) error { return WriteElements(w, DefaultElements()) }); err != nil {
		return created, fmt.Errorf("write elements file: %w", err)
	}

	return created, nil
}
