package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromYAML(t *testing.T) {
	t.Run("bare catalog", func(t *testing.T) {
		data := []byte(`
groups:
  - provider: ollama
    models:
      - id: llama3
        description: Meta's Llama 3
  - provider: openai
    models:
      - id: gpt-4o
        requires_key: true
        call_style: chat
`)

		r, err := LoadFromYAML(data)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		entries := r.Entries()
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].ID != "gpt-4o" {
			t.Errorf("expected openai group first, got %s", entries[0].ID)
		}
		if entries[0].CallStyle != CallStyleChat {
			t.Errorf("expected chat call style, got %q", entries[0].CallStyle)
		}
		if p, _ := r.ResolveProvider("llama3"); p != ProviderOllama {
			t.Errorf("expected llama3 under ollama, got %q", p)
		}
	})

	t.Run("nested under models key", func(t *testing.T) {
		data := []byte(`
models:
  groups:
    - provider: huggingface
      models:
        - id: org/model
          requires_key: true
`)

		r, err := LoadFromYAML(data)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if p, _ := r.ResolveProvider("org/model"); p != ProviderHuggingFace {
			t.Errorf("expected huggingface, got %q", p)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		data := []byte(`
groups:
  - provider: ollama
    models:
      - id: same
  - provider: huggingface
    models:
      - id: same
`)
		if _, err := LoadFromYAML(data); err == nil {
			t.Error("expected error for duplicate id")
		}
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		data := []byte(`
groups:
  - provider: anthropic
    models:
      - id: claude
`)
		if _, err := LoadFromYAML(data); err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("empty catalog rejected", func(t *testing.T) {
		if _, err := LoadFromYAML([]byte("groups: []\n")); err == nil {
			t.Error("expected error for empty catalog")
		}
	})
}

func TestRegistryRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")

	if err := NewDefaultRegistry().SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("catalog file not written: %v", err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := len(r.Entries()); got != 8 {
		t.Errorf("expected 8 entries after reload, got %d", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
