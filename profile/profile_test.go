package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersonas(t *testing.T) {
	data := []byte(`# voices
[mira]
name: Mira
personality: Quiet, exact
interests: tidal pools # and tides
favourite_color: teal

[ghost]
unknown: value

[kai]
style = Clipped and bright
`)

	personas, err := ParsePersonas(data)
	require.NoError(t, err)
	require.Len(t, personas, 2)

	assert.Equal(t, "mira", personas[0].Key)
	assert.Equal(t, "Mira", personas[0].Name)
	assert.Equal(t, "Quiet, exact", personas[0].Personality)
	assert.Equal(t, "tidal pools # and tides", personas[0].Interests)

	assert.Equal(t, "kai", personas[1].Key)
	assert.Equal(t, "Clipped and bright", personas[1].Style)
}

func TestParsePersonas_Empty(t *testing.T) {
	_, err := ParsePersonas([]byte("# nothing here\n\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestParseElements(t *testing.T) {
	data := []byte(`# world
glass_rain: Rain that sets into glass on contact
salt_choir: Crystals that sing at low tide

empty:
`)

	elements, err := ParseElements(data)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	assert.Equal(t, Element{Key: "glass_rain", Description: "Rain that sets into glass on contact"}, elements[0])
	assert.Equal(t, "salt_choir", elements[1].Key)
}

func TestParsePersonas_QuotedFreeText(t *testing.T) {
	data := []byte("[nell]\n" +
		"name: Nell\n" +
		"interests: `code` things and \"marginalia\"\n" +
		"style: \"Whispered\"\n" +
		"influences: 'Le Guin', Borges\n")

	personas, err := ParsePersonas(data)
	require.NoError(t, err)
	require.Len(t, personas, 1)

	assert.Equal(t, "`code` things and \"marginalia\"", personas[0].Interests)
	assert.Equal(t, "\"Whispered\"", personas[0].Style)
	assert.Equal(t, "'Le Guin', Borges", personas[0].Influences)
}

func TestParse_SkipsUnrecognizableLines(t *testing.T) {
	elements, err := ParseElements([]byte("glass_rain: Rain that sets into glass\njust a stray note\nsalt_choir: Singing crystals\n"))
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, "salt_choir", elements[1].Key)

	personas, err := ParsePersonas([]byte("[mira]\nname: Mira\nforgot the colon here\nstyle: Exact\n"))
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Exact", personas[0].Style)
}

func TestSnapshot_LookupIgnoresCase(t *testing.T) {
	elements, err := ParseElements([]byte("Memory_Moss: Moss that records footsteps\n"))
	require.NoError(t, err)

	snap := NewSnapshot([]Persona{{Key: "Cyra", Name: "Cyra"}}, elements)

	e, ok := snap.Element("Memory_Moss")
	require.True(t, ok)
	assert.Equal(t, "Moss that records footsteps", e.Description)
	_, ok = snap.Element("MEMORY_MOSS")
	assert.True(t, ok)

	p, ok := snap.Persona("cyra")
	require.True(t, ok)
	assert.Equal(t, "Cyra", p.Key)
}

func TestWriteAndParseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePersonas(&buf, DefaultPersonas()))

	personas, err := ParsePersonas(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, DefaultPersonas(), personas)

	buf.Reset()
	require.NoError(t, WriteElements(&buf, DefaultElements()))

	elements, err := ParseElements(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, DefaultElements(), elements)
}

func TestDefaults(t *testing.T) {
	snap := DefaultSnapshot()

	assert.Len(t, snap.Personas(), 5)
	assert.Len(t, snap.Elements(), 10)

	p, ok := snap.Persona(DefaultPersonaKey)
	require.True(t, ok)
	assert.Equal(t, "Cyra the Posthumanist", p.Name)

	_, ok = snap.Element("memory_moss")
	assert.True(t, ok)
}

func TestSnapshot_DuplicateKeepsFirstPosition(t *testing.T) {
	snap := NewSnapshot(nil, []Element{
		{Key: "a", Description: "first"},
		{Key: "b", Description: "b"},
		{Key: "a", Description: "second"},
	})

	elements := snap.Elements()
	require.Len(t, elements, 2)
	assert.Equal(t, "a", elements[0].Key)
	assert.Equal(t, "second", elements[0].Description)
}

func TestSnapshot_Nil(t *testing.T) {
	var snap *Snapshot
	_, ok := snap.Persona("cyra")
	assert.False(t, ok)
	assert.Nil(t, snap.Elements())
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	personaPath := filepath.Join(dir, "personas.ini")
	elementsPath := filepath.Join(dir, "elements.txt")

	require.NoError(t, os.WriteFile(personaPath, []byte("[solo]\nname: Solo\n"), 0644))

	// Elements file missing: built-in elements with a warning.
	s := NewStore(personaPath, elementsPath, nil)
	snap := s.Snapshot()

	assert.Len(t, snap.Personas(), 1)
	assert.Len(t, snap.Elements(), 10)

	// Snapshots are immutable; reload swaps.
	require.NoError(t, os.WriteFile(elementsPath, []byte("fog: Fog with opinions\n"), 0644))
	require.NoError(t, os.WriteFile(personaPath, []byte(""), 0644))

	fresh := s.Reload()
	assert.Same(t, fresh, s.Snapshot())
	assert.Len(t, fresh.Personas(), 5, "empty persona file falls back to defaults")
	assert.Len(t, fresh.Elements(), 1)

	assert.Len(t, snap.Personas(), 1, "old snapshot unchanged")
}

func TestStore_NoPaths(t *testing.T) {
	s := NewStore("", "", nil)
	assert.Len(t, s.Snapshot().Personas(), 5)
	assert.Len(t, s.Snapshot().Elements(), 10)
}

func TestEnsureFiles(t *testing.T) {
	dir := t.TempDir()
	personaPath := filepath.Join(dir, "profiles", "personas.ini")
	elementsPath := filepath.Join(dir, "profiles", "elements.txt")

	created, err := EnsureFiles(personaPath, elementsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{personaPath, elementsPath}, created)

	personas, err := LoadPersonas(personaPath)
	require.NoError(t, err)
	assert.Len(t, personas, 5)

	// Second call leaves existing files alone.
	created, err = EnsureFiles(personaPath, elementsPath)
	require.NoError(t, err)
	assert.Empty(t, created)
}
