package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetByMimeType(t *testing.T) {
	r := NewRegistry()

	t.Run("direct match", func(t *testing.T) {
		p := r.GetByMimeType("text/markdown")
		require.NotNil(t, p)
		assert.Equal(t, "text/markdown", p.MimeType())
	})

	t.Run("CanParse fallback", func(t *testing.T) {
		p := r.GetByMimeType("text/x-markdown")
		require.NotNil(t, p)
		assert.Equal(t, "text/markdown", p.MimeType())
	})

	t.Run("xhtml handled by html parser", func(t *testing.T) {
		p := r.GetByMimeType("application/xhtml+xml")
		require.NotNil(t, p)
		assert.Equal(t, "text/html", p.MimeType())
	})

	t.Run("no parser for unknown type", func(t *testing.T) {
		assert.Nil(t, r.GetByMimeType("application/octet-stream"))
	})
}

func TestRegistry_GetByExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		filename string
		wantMime string
	}{
		{"notes.md", "text/markdown"},
		{"notes.markdown", "text/markdown"},
		{"notes.txt", "text/plain"},
		{"paper.PDF", "application/pdf"},
		{"draft.docx", mimeDocx},
		{"page.htm", "text/html"},
		{"noextension", ""},
		{"legacy.doc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			p := r.GetByExtension(tt.filename)
			if tt.wantMime == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.wantMime, p.MimeType())
		})
	}
}

func TestRegistry_Parse(t *testing.T) {
	r := NewRegistry()

	t.Run("success with text", func(t *testing.T) {
		doc, err := r.Parse("dir/notes.txt", []byte("plain words"))
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", doc.Filename)
		assert.Equal(t, "plain words", doc.Body)
	})

	t.Run("error when no parser", func(t *testing.T) {
		_, err := r.Parse("image.png", []byte("content"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no parser for file type")
		assert.Contains(t, err.Error(), ".png")
	})
}

func TestRegistry_ListMimeTypes(t *testing.T) {
	types := NewRegistry().ListMimeTypes()
	assert.Equal(t, []string{
		"application/pdf",
		mimeDocx,
		"text/html",
		"text/markdown",
		"text/plain",
	}, types)
}

func TestMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".md", "text/markdown"},
		{".MD", "text/markdown"}, // case insensitive
		{".txt", "text/plain"},
		{".html", "text/html"},
		{".pdf", "application/pdf"},
		{".docx", mimeDocx},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, MimeTypeFromExtension(tt.ext))
		})
	}
}

func TestExtensionFromMimeType(t *testing.T) {
	assert.Equal(t, ".md", ExtensionFromMimeType("text/x-markdown"))
	assert.Equal(t, ".docx", ExtensionFromMimeType(mimeDocx))
	assert.Equal(t, "", ExtensionFromMimeType("unknown/type"))
}
