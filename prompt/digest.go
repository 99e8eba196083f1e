package prompt

import (
	"strings"

	"github.com/interspecifics/Tbot-writer/source"
)

// MaxExcerptRunes is the hard cut applied to each reference excerpt.
const MaxExcerptRunes = 500

const (
	digestPreamble = "\n\nReference Materials (use as STYLE inspiration only, do NOT copy content):\n"
	digestRule     = "============================================================\n"
	digestNotice   = "IMPORTANT: Use these materials for writing style, tone, and approach inspiration only.\n" +
		"Do NOT copy, paraphrase, or directly reference any content from these materials.\n" +
		"Create your own original continuation based on the user's prompt.\n\n"
	digestClosing = "\nUse the above styles as inspiration for your own original writing.\n"
)

// BuildReferenceDigest renders reference materials as a style-only section.
// Empty input yields the empty string so no section is emitted at all.
// Each excerpt is cut to MaxExcerptRunes runes, without regard for sentence boundaries.
func BuildReferenceDigest(materials []source.Material) string {
	if len(materials) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(digestPreamble)
	b.WriteString(digestRule)
	b.WriteString(digestNotice)

	for _, m := range materials {
		b.WriteString("\n--- Style reference from ")
		b.WriteString(m.Filename)
		b.WriteString(" ---\n")
		b.WriteString("Writing approach: ")
		b.WriteString(source.Truncate(m.Content, MaxExcerptRunes))
		b.WriteString("...\n")
	}

	b.WriteString(digestClosing)
	return b.String()
}
