package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/interspecifics/Tbot-writer/source"
)

func TestBuildReferenceDigest_Empty(t *testing.T) {
	assert.Equal(t, "", BuildReferenceDigest(nil))
	assert.Equal(t, "", BuildReferenceDigest([]source.Material{}))
}

func TestBuildReferenceDigest_Excerpts(t *testing.T) {
	materials := []source.Material{
		{Filename: "long.txt", Content: strings.Repeat("ß", 1800)},
		{Filename: "short.md", Content: "Brief."},
	}

	got := BuildReferenceDigest(materials)

	assert.True(t, strings.HasPrefix(got, digestPreamble))
	assert.True(t, strings.HasSuffix(got, digestClosing))
	assert.Contains(t, got, "do NOT copy")
	assert.Contains(t, got, "--- Style reference from long.txt ---")
	assert.Contains(t, got, "--- Style reference from short.md ---")
	assert.Contains(t, got, "Writing approach: Brief....")

	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "Writing approach: ") {
			continue
		}
		excerpt := strings.TrimSuffix(strings.TrimPrefix(line, "Writing approach: "), "...")
		assert.LessOrEqual(t, utf8.RuneCountInString(excerpt), MaxExcerptRunes)
		assert.True(t, utf8.ValidString(excerpt))
	}
}

func TestBuildReferenceDigest_ExactCut(t *testing.T) {
	content := strings.Repeat("a", MaxExcerptRunes) + "TAIL"

	got := BuildReferenceDigest([]source.Material{{Filename: "f.txt", Content: content}})

	assert.Contains(t, got, strings.Repeat("a", MaxExcerptRunes)+"...")
	assert.NotContains(t, got, "TAIL")
}
