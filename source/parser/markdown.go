package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownParser parses markdown documents with optional YAML frontmatter.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse parses a markdown document, separating frontmatter from the body.
// Only the body is used as reference text.
func (p *MarkdownParser) Parse(filename string, content []byte) (*Document, error) {
	doc := &Document{
		Filename: filepath.Base(filename),
		MimeType: p.MimeType(),
	}

	str := string(content)
	if strings.HasPrefix(str, "---\n") || strings.HasPrefix(str, "---\r\n") {
		frontmatter, body, err := extractFrontmatter(str)
		if err != nil {
			// If frontmatter parsing fails, treat entire content as body
			doc.Body = str
		} else {
			doc.Frontmatter = frontmatter
			doc.Body = body
		}
	} else {
		doc.Body = str
	}

	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *MarkdownParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/markdown", "text/x-markdown":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *MarkdownParser) MimeType() string {
	return "text/markdown"
}

// extractFrontmatter parses YAML frontmatter from markdown content.
// Returns the parsed frontmatter map, the remaining body, and any error.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	// Skip the opening delimiter
	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	return frontmatter, body, nil
}
