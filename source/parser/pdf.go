package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the text layer of PDF documents.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts page text in order, one paragraph break between pages.
// Pages that fail to decode are skipped.
func (p *PDFParser) Parse(filename string, content []byte) (*Document, error) {
	reader, err := pdf.NewReader(newBytesReaderAt(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var textBuilder strings.Builder

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n\n")
			}
			textBuilder.WriteString(text)
		}
	}

	// Image-only PDFs yield an empty body; the loader skips those.
	return &Document{
		Filename: filepath.Base(filename),
		MimeType: p.MimeType(),
		Body:     textBuilder.String(),
	}, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *PDFParser) CanParse(mimeType string) bool {
	return mimeType == "application/pdf"
}

// MimeType returns the primary MIME type for this parser.
func (p *PDFParser) MimeType() string {
	return "application/pdf"
}

// bytesReaderAt implements io.ReaderAt for a byte slice.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
