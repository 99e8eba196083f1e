package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interspecifics/Tbot-writer/config"
	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/llm/testutil"
	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/prompt"
	"github.com/interspecifics/Tbot-writer/source"
)

// recordingSaver applies updates to an in-memory user settings layer.
type recordingSaver struct {
	user  *config.Config
	saved []config.Config
}

func (r *recordingSaver) UpdateUserConfig(mutate func(*config.Config)) error {
	if r.user == nil {
		r.user = config.DefaultConfig()
	}
	mutate(r.user)
	r.saved = append(r.saved, *r.user)
	return nil
}

type harness struct {
	shell  *Shell
	out    *bytes.Buffer
	cfg    *config.Config
	saver  *recordingSaver
	ollama *testutil.MockProvider
	openai *testutil.MockProvider
	refDir string
}

func newHarness(t *testing.T, input []string, mutate func(*config.Config)) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		out:    &bytes.Buffer{},
		cfg:    cfg,
		saver:  &recordingSaver{},
		ollama: &testutil.MockProvider{Provider: model.ProviderOllama, Responses: []string{"The hull sang back.", "Second reply."}},
		openai: &testutil.MockProvider{Provider: model.ProviderOpenAI, Responses: []string{"Managed reply."}},
		refDir: filepath.Join(t.TempDir(), "refs"),
	}

	profiles := profile.NewStaticStore(profile.DefaultSnapshot())
	styles := prompt.DefaultStyles()
	dispatcher := llm.NewDispatcher(model.NewDefaultRegistry(), prompt.NewComposer(styles, profiles),
		llm.NewProviderTable(h.ollama))

	h.shell = New(Deps{
		Config:     cfg,
		Saver:      h.saver,
		Dispatcher: dispatcher,
		Adapters: func(*config.Config) llm.ProviderTable {
			return llm.NewProviderTable(h.ollama, h.openai)
		},
		Profiles:   profiles,
		Styles:     styles,
		References: source.NewLoader(h.refDir),
		In:         strings.NewReader(strings.Join(input, "\n") + "\n"),
		Out:        h.out,
	})
	return h
}

func TestShell_DefaultsAndDispatch(t *testing.T) {
	h := newHarness(t, []string{
		"",                  // style
		"",                  // model
		"",                  // character
		"memory_moss, ",     // elements
		"The ship drifted.", // prompt
		"quit",
	}, nil)

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "AVAILABLE MODELS")
	assert.Contains(t, out, "Selected model: neural-chat")
	assert.Contains(t, out, "Selected: Cyra the Posthumanist")
	assert.Contains(t, out, "No reference folder found. Created:")
	assert.Contains(t, out, "The hull sang back.")
	assert.Contains(t, out, "Goodbye!")

	require.Equal(t, 1, h.ollama.GetCallCount())
	req := h.ollama.LastRequest()
	assert.Equal(t, "neural-chat", req.Model)
	assert.Contains(t, req.Prompt, "The ship drifted.")
	assert.Contains(t, req.Prompt, "- memory_moss:")

	session := h.shell.Session()
	assert.Equal(t, "sci-fi", session.Style)
	assert.Equal(t, "cyra", session.Persona)
	assert.Equal(t, []string{"memory_moss"}, session.Elements)

	_, err := os.Stat(h.refDir)
	assert.NoError(t, err, "reference folder should be created")
}

func TestShell_SelectByNumber(t *testing.T) {
	h := newHarness(t, []string{
		"poetry",
		"4", // mistral
		"2", // lia
		"",
		"quit",
	}, nil)

	require.NoError(t, h.shell.Run(context.Background()))

	session := h.shell.Session()
	assert.Equal(t, "poetry", session.Style)
	assert.Equal(t, "mistral", session.Model)
	assert.Equal(t, "lia", session.Persona)
	assert.Empty(t, session.Elements)
}

func TestShell_InvalidSelectionsFallBack(t *testing.T) {
	h := newHarness(t, []string{
		"",
		"99",
		"nobody",
		"",
		"quit",
	}, nil)

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Invalid model number: 99")
	assert.Contains(t, out, "Using default model: neural-chat")
	assert.Contains(t, out, "Using default character: cyra")
}

func TestShell_DeclineKeyPrompt(t *testing.T) {
	h := newHarness(t, []string{
		"",
		"gpt-4",
		"", // decline key
		"",
		"",
		"quit",
	}, nil)

	require.NoError(t, h.shell.Run(context.Background()))

	assert.Contains(t, h.out.String(), "Enter API key")
	assert.Equal(t, "neural-chat", h.shell.Session().Model)
	assert.Empty(t, h.saver.saved)
}

func TestShell_AcceptKeySavesAndRebuildsAdapters(t *testing.T) {
	h := newHarness(t, []string{
		"",
		"gpt-4",
		"sk-live",
		"",
		"",
		"Continue this.",
		"quit",
	}, func(c *config.Config) {
		// Runtime-only values from the environment and flags.
		c.Credentials.HuggingFaceAPIKey = "hf_from_env"
		c.Defaults.Style = "poetry"
	})
	h.saver.user = config.DefaultConfig()
	h.saver.user.Defaults.Persona = "lia"

	require.NoError(t, h.shell.Run(context.Background()))

	require.Len(t, h.saver.saved, 1)
	saved := h.saver.saved[0]
	assert.Equal(t, "sk-live", saved.Credentials.OpenAIAPIKey)
	assert.Equal(t, "lia", saved.Defaults.Persona, "user layer is kept")
	assert.Empty(t, saved.Credentials.HuggingFaceAPIKey, "runtime credentials are not written")
	assert.Equal(t, "sci-fi", saved.Defaults.Style, "runtime overrides are not written")
	assert.Equal(t, "sk-live", h.cfg.Credentials.OpenAIAPIKey)

	assert.Equal(t, "gpt-4", h.shell.Session().Model)
	assert.Equal(t, 1, h.openai.GetCallCount())
	assert.Equal(t, model.CallStyleChat, h.openai.LastRequest().CallStyle)
	assert.Contains(t, h.out.String(), "Managed reply.")
}

func TestShell_CommandsDuringSession(t *testing.T) {
	h := newHarness(t, []string{
		"", "", "", "",
		"new model",
		"gpt-5",
		"new character",
		"Dr. Orin",
		"new style",
		"journalistic",
		"glacial_memory,time_crystals",
		"status",
		"help",
		"exit",
	}, func(c *config.Config) { c.Credentials.OpenAIAPIKey = "sk-configured" })

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Unknown model: gpt-5")
	assert.Contains(t, out, "Invalid model selection. Keeping current model.")
	assert.Contains(t, out, "Character updated to: Dr. Orin")
	assert.Contains(t, out, "Style and elements updated!")
	assert.Contains(t, out, "Elements:   glacial_memory, time_crystals")
	assert.Contains(t, out, "reload profiles")

	session := h.shell.Session()
	assert.Equal(t, "neural-chat", session.Model)
	assert.Equal(t, "dr_orin", session.Persona)
	assert.Equal(t, "journalistic", session.Style)
	assert.Equal(t, 0, h.ollama.GetCallCount())
}

func TestShell_ReferenceMaterialsReachPrompt(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, os.MkdirAll(h.refDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(h.refDir, "notes.txt"), []byte("Short clipped sentences."), 0644))

	h.shell.in = newScanner(strings.NewReader("\n\n\n\nA door opened.\nrefs\nreload refs\nquit\n"))
	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Found 1 reference material(s):")
	assert.Contains(t, out, "1. notes.txt (24 bytes)")
	assert.Contains(t, out, "Loaded 1 reference material(s)")
	assert.Contains(t, out, "Reloaded 1 reference material(s)")

	require.Len(t, h.shell.Materials(), 1)
	assert.Contains(t, h.ollama.LastRequest().Prompt, "Style reference from notes.txt")
}

func TestShell_ProviderErrorKeepsLooping(t *testing.T) {
	h := newHarness(t, []string{"", "", "", "", "first", "second", "quit"}, nil)
	h.ollama.Err = llm.NewProviderError(model.ProviderOllama, "status 500 Internal Server Error", nil)

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Equal(t, 2, strings.Count(out, "ollama API error"))
	assert.Contains(t, out, "Please try again.")
	assert.Equal(t, 2, h.ollama.GetCallCount())
}

func TestShell_EndOfInputDuringSetup(t *testing.T) {
	h := newHarness(t, []string{""}, nil)
	assert.NoError(t, h.shell.Run(context.Background()))
	assert.Equal(t, 0, h.ollama.GetCallCount())
}

func TestParseElements(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"  ", nil},
		{"a", []string{"a"}},
		{"a, b ,, c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseElements(tt.input), "input %q", tt.input)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
		-4200:   "-4,200",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatBytes(in))
	}
}
