package prompt

import (
	"strings"

	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/source"
)

// Fixed prompt sections. The user's text is placed before the persona block so
// models treat the narrative, not the voice description, as the subject.
const (
	continuationGuardrail = "\n\nThe text below IS the story you are continuing. " +
		"Continue this narrative in the same direction and style. Flow naturally from where it left off. " +
		"Do not start a new story or change the narrative direction. " +
		"Do not open by describing a writer, a persona, or their personality or interests. " +
		"Simply continue the existing narrative thread."

	originalityGuardrail = "\n\nCRITICAL: Write completely original content. " +
		"Do not copy, paraphrase, or directly reference any content from reference materials. " +
		"Use reference materials only for style inspiration. " +
		"Create your own unique continuation based on the user's prompt."

	narrativeLabel = "\n\nNarrative to continue:\n"

	personaHeader = "\n\nWrite the continuation with this voice and style:\n"

	creativeGuide = "\nCreative expression guide:\n" +
		"- Let the interests surface through imagery, metaphor and situation instead of stating them.\n" +
		"- Vary your vocabulary. Do not repeat the interest or influence phrases above word for word.\n" +
		"- Never open with self-referential phrasing such as \"As a...\" or \"I am...\".\n" +
		"- Do not include titles, character names or meta-references. Write directly in this voice without mentioning who is writing.\n"

	elementsHeader = "\n\nIncorporate these elements naturally:\n"

	finalInstruction = "\n\nNow continue the narrative above from exactly where it stops. " +
		"Write the next passage of that story, not a piece about the voice or the writer."
)

// Request holds the inputs for one composed prompt.
type Request struct {
	// Text is the user's narrative fragment.
	Text string

	// Style is a style key. Case-insensitive; unknown keys use the default style.
	Style string

	// Persona is a persona key. Empty or unknown keys omit the persona section.
	Persona string

	// Elements are element keys. Unknown keys are skipped.
	Elements []string

	// Materials are loaded style references.
	Materials []source.Material
}

// Composer builds prompts from a style table and the current profile snapshot.
type Composer struct {
	styles   StyleTable
	profiles *profile.Store
}

// NewComposer creates a composer. A nil style table uses DefaultStyles;
// a nil store disables persona and element sections.
func NewComposer(styles StyleTable, profiles *profile.Store) *Composer {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Composer{styles: styles, profiles: profiles}
}

// Styles returns the composer's style table.
func (c *Composer) Styles() StyleTable {
	return c.styles
}

// Compose assembles the prompt in a fixed order: style instruction, continuation
// guardrails, originality guardrails, the labelled user text, persona voice,
// elements, reference digest, final instruction.
// Unresolvable persona or element keys never fail; their sections are omitted.
func (c *Composer) Compose(req Request) string {
	var snap *profile.Snapshot
	if c.profiles != nil {
		snap = c.profiles.Snapshot()
	}

	var b strings.Builder

	b.WriteString(c.styles.Instruction(req.Style))
	b.WriteString(continuationGuardrail)
	b.WriteString(originalityGuardrail)

	b.WriteString(narrativeLabel)
	b.WriteString(req.Text)

	if p, ok := snap.Persona(req.Persona); ok && req.Persona != "" {
		writePersona(&b, p)
	}

	writeElements(&b, snap, req.Elements)

	b.WriteString(BuildReferenceDigest(req.Materials))
	b.WriteString(finalInstruction)

	return b.String()
}

func writePersona(b *strings.Builder, p profile.Persona) {
	b.WriteString(personaHeader)
	writeField(b, "Voice", p.Name)
	writeField(b, "Personality", p.Personality)
	writeField(b, "Interests", p.Interests)
	writeField(b, "Style", p.Style)
	writeField(b, "Influences", p.Influences)
	b.WriteString(creativeGuide)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

// writeElements emits one bullet per resolvable key. The header is written
// only when at least one key resolves.
func writeElements(b *strings.Builder, snap *profile.Snapshot, keys []string) {
	var lines []string
	for _, key := range keys {
		e, ok := snap.Element(strings.TrimSpace(key))
		if !ok {
			continue
		}
		lines = append(lines, "- "+e.Key+": "+e.Description+"\n")
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString(elementsHeader)
	for _, l := range lines {
		b.WriteString(l)
	}
}
