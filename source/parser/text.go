package parser

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextParser reads plain text files as-is.
type TextParser struct{}

// NewTextParser creates a new plain text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse returns the file content as the body. Invalid UTF-8 is replaced.
func (p *TextParser) Parse(filename string, content []byte) (*Document, error) {
	body := string(content)
	if !utf8.ValidString(body) {
		body = strings.ToValidUTF8(body, "\uFFFD")
	}

	return &Document{
		Filename: filepath.Base(filename),
		MimeType: p.MimeType(),
		Body:     strings.TrimPrefix(body, "\uFEFF"),
	}, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *TextParser) CanParse(mimeType string) bool {
	return mimeType == "text/plain"
}

// MimeType returns the primary MIME type for this parser.
func (p *TextParser) MimeType() string {
	return "text/plain"
}
