package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// docxBodyPart is the archive entry holding the main document text.
const docxBodyPart = "word/document.xml"

// DocxParser extracts paragraph text from Office Open XML documents.
type DocxParser struct{}

// NewDocxParser creates a new DOCX parser.
func NewDocxParser() *DocxParser {
	return &DocxParser{}
}

// Parse reads word/document.xml and joins paragraphs with newlines.
func (p *DocxParser) Parse(filename string, content []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("open DOCX: missing %s", docxBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open DOCX body: %w", err)
	}
	defer rc.Close()

	body, err := docxText(rc)
	if err != nil {
		return nil, fmt.Errorf("read DOCX body: %w", err)
	}

	return &Document{
		Filename: filepath.Base(filename),
		MimeType: p.MimeType(),
		Body:     body,
	}, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *DocxParser) CanParse(mimeType string) bool {
	return mimeType == mimeDocx
}

// MimeType returns the primary MIME type for this parser.
func (p *DocxParser) MimeType() string {
	return mimeDocx
}

// docxText streams WordprocessingML and collects run text.
// w:t carries text, w:tab and w:br map to whitespace, w:p ends a line.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    []string
		para   strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(para.String()); s != "" {
					out = append(out, s)
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	if s := strings.TrimSpace(para.String()); s != "" {
		out = append(out, s)
	}

	return strings.Join(out, "\n"), nil
}
