// Package source loads style-reference documents for prompt composition.
package source

import "time"

// MaxMaterialRunes caps the text kept per reference file.
const MaxMaterialRunes = 2000

// DefaultPatterns are the file patterns loaded from the reference folder.
var DefaultPatterns = []string{"*.{pdf,docx,txt,md,markdown,html,htm}"}

// Material is one loaded reference document.
type Material struct {
	// Filename is the path relative to the reference folder.
	Filename string `json:"filename"`

	// Content is the extracted text, at most MaxMaterialRunes runes.
	Content string `json:"content"`
}

// FileInfo describes a file in the reference folder.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Truncate cuts s to at most n runes. Multi-byte characters are never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
