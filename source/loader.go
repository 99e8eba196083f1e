package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/interspecifics/Tbot-writer/source/parser"
)

// Loader reads reference documents from a folder.
type Loader struct {
	dir      string
	patterns []string
	parsers  *parser.Registry
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPatterns sets the doublestar patterns matched against paths relative to the folder.
func WithPatterns(patterns ...string) LoaderOption {
	return func(l *Loader) {
		if len(patterns) > 0 {
			l.patterns = patterns
		}
	}
}

// WithParsers sets the parser registry.
func WithParsers(r *parser.Registry) LoaderOption {
	return func(l *Loader) {
		l.parsers = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader for the given folder.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:      dir,
		patterns: DefaultPatterns,
		parsers:  parser.NewRegistry(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Dir returns the reference folder.
func (l *Loader) Dir() string {
	return l.dir
}

// EnsureDir creates the reference folder if it does not exist.
// Returns true if the folder was created.
func (l *Loader) EnsureDir() (bool, error) {
	if _, err := os.Stat(l.dir); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat reference folder: %w", err)
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return false, fmt.Errorf("create reference folder: %w", err)
	}

	l.logger.Info("Created reference folder", "path", l.dir)
	return true, nil
}

// Load extracts every matching file, cut to MaxMaterialRunes.
// Files that fail to parse or yield no text are skipped with a warning.
// A missing folder is created and yields no materials.
func (l *Loader) Load() ([]Material, error) {
	created, err := l.EnsureDir()
	if err != nil {
		return nil, err
	}
	if created {
		return nil, nil
	}

	paths, err := l.match()
	if err != nil {
		return nil, err
	}

	var materials []Material
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(rel)))
		if err != nil {
			l.logger.Warn("Could not read reference file", "file", rel, "error", err)
			continue
		}

		doc, err := l.parsers.Parse(rel, content)
		if err != nil {
			l.logger.Warn("Could not extract reference file", "file", rel, "error", err)
			continue
		}

		text := strings.TrimSpace(doc.Body)
		if text == "" {
			l.logger.Debug("Reference file has no text", "file", rel)
			continue
		}

		materials = append(materials, Material{
			Filename: rel,
			Content:  Truncate(text, MaxMaterialRunes),
		})

		l.logger.Debug("Loaded reference material", "file", rel, "mime_type", doc.MimeType)
	}

	l.logger.Info("Loaded reference materials", "count", len(materials), "path", l.dir)
	return materials, nil
}

// List returns the matching files with their sizes, without extracting them.
func (l *Loader) List() ([]FileInfo, error) {
	if _, err := l.EnsureDir(); err != nil {
		return nil, err
	}

	paths, err := l.match()
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(paths))
	for _, rel := range paths {
		info, err := os.Stat(filepath.Join(l.dir, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: rel, Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

// Matches reports whether a slash-separated path relative to the folder is a reference file.
// Matching is case-insensitive.
func (l *Loader) Matches(rel string) bool {
	return matchAny(l.patterns, rel)
}

// match walks the folder in lexical order and returns matching relative paths.
func (l *Loader) match() ([]string, error) {
	for _, p := range l.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid reference pattern %q", p)
		}
	}

	var out []string
	err := fs.WalkDir(os.DirFS(l.dir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if matchAny(l.patterns, path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan reference folder: %w", err)
	}
	return out, nil
}

func matchAny(patterns []string, rel string) bool {
	rel = strings.ToLower(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(strings.ToLower(p), rel); ok {
			return true
		}
	}
	return false
}
