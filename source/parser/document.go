// Package parser extracts plain text from reference documents.
package parser

// Document is the extracted form of a reference file.
type Document struct {
	// Filename is the base name of the source file.
	Filename string `json:"filename"`

	// MimeType is the type the parser handled.
	MimeType string `json:"mime_type"`

	// Frontmatter holds YAML front matter from markdown files.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`

	// Body is the extracted text used for style reference.
	Body string `json:"body"`
}

// HasFrontmatter returns true if the document carried front matter.
func (d *Document) HasFrontmatter() bool {
	return len(d.Frontmatter) > 0
}
