package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Parser defines the interface for document parsers.
type Parser interface {
	// Parse extracts text from a document.
	Parse(filename string, content []byte) (*Document, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// Registry manages document parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser // keyed by primary MIME type
}

// NewRegistry creates a new parser registry with default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	r.Register(NewTextParser())
	r.Register(NewMarkdownParser())
	r.Register(NewPDFParser())
	r.Register(NewDocxParser())
	r.Register(NewHTMLParser())

	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns a parser for the given MIME type.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Direct match
	if p, ok := r.parsers[mimeType]; ok {
		return p
	}

	// Check if any parser can handle this type, in a stable order
	for _, key := range r.sortedKeys() {
		if p := r.parsers[key]; p.CanParse(mimeType) {
			return p
		}
	}

	return nil
}

// GetByExtension returns a parser for a file based on its extension.
func (r *Registry) GetByExtension(filename string) Parser {
	mimeType := MimeTypeFromExtension(filepath.Ext(filename))
	return r.GetByMimeType(mimeType)
}

// Parse extracts a document using the appropriate parser.
func (r *Registry) Parse(filename string, content []byte) (*Document, error) {
	parser := r.GetByExtension(filename)
	if parser == nil {
		return nil, fmt.Errorf("no parser for file type: %s", filepath.Ext(filename))
	}
	return parser.Parse(filename, content)
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedKeys()
}

// sortedKeys must be called with mu held.
func (r *Registry) sortedKeys() []string {
	keys := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return mimeDocx
	default:
		return "application/octet-stream"
	}
}

// ExtensionFromMimeType returns a typical file extension for a MIME type.
func ExtensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "text/markdown", "text/x-markdown":
		return ".md"
	case "text/plain":
		return ".txt"
	case "text/html":
		return ".html"
	case "application/pdf":
		return ".pdf"
	case mimeDocx:
		return ".docx"
	default:
		return ""
	}
}
