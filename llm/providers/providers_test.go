package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// recordingServer serves a fixed response and records the last request.
type recordingServer struct {
	*httptest.Server
	hits     atomic.Int32
	lastPath atomic.Value
	lastAuth atomic.Value
	lastBody atomic.Value
}

func newRecordingServer(t *testing.T, status int, response string) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		rs.lastPath.Store(r.URL.Path)
		rs.lastAuth.Store(r.Header.Get("Authorization"))
		rs.lastBody.Store(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) path() string {
	p, _ := rs.lastPath.Load().(string)
	return p
}

func (rs *recordingServer) body(t *testing.T) map[string]any {
	t.Helper()
	raw, _ := rs.lastBody.Load().([]byte)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestOpenAIProvider_MissingKeyFailsBeforeIO(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{}`)

	for _, key := range []string{"", "your-openai-api-key-here"} {
		p := NewOpenAIProvider(OpenAIConfig{APIKey: key, BaseURL: srv.URL + "/v1"})
		_, err := p.Invoke(context.Background(), llm.Request{Prompt: "hi", Model: "gpt-3.5-turbo-instruct"})
		require.Error(t, err)
		assert.True(t, llm.IsConfigurationError(err), "key %q", key)
	}
	assert.Equal(t, int32(0), srv.hits.Load())
}

func TestOpenAIProvider_CompletionPath(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"id":"c1","object":"text_completion","choices":[{"text":"  and then the ship landed.  ","index":0}]}`)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := p.Invoke(context.Background(), llm.Request{
		Prompt:    "Once upon a time",
		Model:     "gpt-3.5-turbo-instruct",
		CallStyle: model.CallStyleCompletion,
	})
	require.NoError(t, err)

	assert.Equal(t, "and then the ship landed.", got)
	assert.Equal(t, "/v1/completions", srv.path())
	assert.Equal(t, "Bearer sk-test", srv.lastAuth.Load())

	body := srv.body(t)
	assert.Equal(t, "Once upon a time", body["prompt"])
	assert.EqualValues(t, llm.DefaultMaxTokens, body["max_tokens"])
}

func TestOpenAIProvider_ZeroTemperatureIsSent(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name      string
		model     string
		callStyle model.CallStyle
		response  string
	}{
		{"completion", "gpt-3.5-turbo-instruct", model.CallStyleCompletion, `{"choices":[{"text":"a","index":0}]}`},
		{"chat", "gpt-4", model.CallStyleChat, `{"choices":[{"index":0,"message":{"role":"assistant","content":"a"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRecordingServer(t, http.StatusOK, tt.response)
			p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

			_, err := p.Invoke(context.Background(), llm.Request{
				Prompt:      "hi",
				Model:       tt.model,
				CallStyle:   tt.callStyle,
				Temperature: &zero,
			})
			require.NoError(t, err)

			temp, ok := srv.body(t)["temperature"]
			require.True(t, ok, "temperature must be present in the request body")
			assert.InDelta(t, 0, temp, 1e-6)
		})
	}
}

func TestOpenAIProvider_ChatPath(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"id":"c2","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" The rain kept falling. "}}]}`)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	got, err := p.Invoke(context.Background(), llm.Request{
		Prompt:    "It was a dark night",
		Model:     "gpt-4",
		CallStyle: model.CallStyleChat,
		MaxTokens: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "The rain kept falling.", got)
	assert.Equal(t, "/v1/chat/completions", srv.path())

	body := srv.body(t)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "It was a dark night", first["content"])
	assert.EqualValues(t, 50, body["max_tokens"])
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"choices":[]}`)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "gpt-3.5-turbo-instruct"})
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "gpt-3.5-turbo-instruct"})
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
	assert.Contains(t, err.Error(), "openai API error")
}

func TestOllamaProvider_Generate(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"model":"llama2","response":"  the forest whispered back.\n","done":true}`)

	temp := 0.0
	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL + "/"})
	got, err := p.Invoke(context.Background(), llm.Request{
		Prompt:      "The forest",
		Model:       "llama2",
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "the forest whispered back.", got)
	assert.Equal(t, "/api/generate", srv.path())

	body := srv.body(t)
	assert.Equal(t, "llama2", body["model"])
	assert.Equal(t, "The forest", body["prompt"])
	assert.Equal(t, false, body["stream"])

	opts := body["options"].(map[string]any)
	assert.EqualValues(t, llm.DefaultMaxTokens, opts["num_predict"])
	assert.EqualValues(t, 0, opts["temperature"])
	assert.InDelta(t, 0.9, opts["top_p"], 1e-9)
	assert.InDelta(t, 1.1, opts["repeat_penalty"], 1e-9)
}

func TestOllamaProvider_MissingResponseField(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"done":true}`)

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	got, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestOllamaProvider_HTTPErrorCarriesStatus(t *testing.T) {
	srv := newRecordingServer(t, http.StatusInternalServerError, `model crashed`)

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "mistral"})
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model crashed")
}

func TestOllamaProvider_InvalidJSON(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `not json`)

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "mistral"})
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
}

func TestOllamaProvider_ListInstalled(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"models":[{"name":"llama2:7b"},{"name":"mistral:latest"},{"name":"neural-chat"}]}`)

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	names, err := p.ListInstalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama2", "mistral", "neural-chat"}, names)
	assert.Equal(t, "/api/tags", srv.path())
}

func TestOllamaProvider_ListInstalledWithRegistry(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"models":[{"name":"mistral:latest"}]}`)

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	entries := model.NewDefaultRegistry().ListInstalled(context.Background(), model.ProviderOllama, p, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "mistral", entries[0].ID)
}

func TestOllamaProvider_DefaultBaseURL(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{})
	assert.Equal(t, DefaultOllamaURL, p.BaseURL())
}

func TestHuggingFaceProvider_MissingKeyFailsBeforeIO(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `[]`)

	p := NewHuggingFaceProvider(HuggingFaceConfig{APIKey: "your-huggingface-api-key-here", BaseURL: srv.URL})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "gpt2"})
	require.Error(t, err)
	assert.True(t, llm.IsConfigurationError(err))
	assert.Equal(t, int32(0), srv.hits.Load())
}

func TestHuggingFaceProvider_ListResponse(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `[{"generated_text":"  a quiet morning  "}]`)

	p := NewHuggingFaceProvider(HuggingFaceConfig{APIKey: "hf_test", BaseURL: srv.URL})
	got, err := p.Invoke(context.Background(), llm.Request{Prompt: "Begin", Model: "microsoft/DialoGPT-medium"})
	require.NoError(t, err)

	assert.Equal(t, "a quiet morning", got)
	assert.Equal(t, "/models/microsoft/DialoGPT-medium", srv.path())
	assert.Equal(t, "Bearer hf_test", srv.lastAuth.Load())

	body := srv.body(t)
	assert.Equal(t, "Begin", body["inputs"])
	params := body["parameters"].(map[string]any)
	assert.EqualValues(t, llm.DefaultMaxTokens, params["max_new_tokens"])
	assert.Equal(t, true, params["do_sample"])
}

func TestHuggingFaceProvider_ObjectResponseIsStringified(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `{"error": "Model is loading", "estimated_time": 20}`)

	p := NewHuggingFaceProvider(HuggingFaceConfig{APIKey: "hf_test", BaseURL: srv.URL})
	got, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "gpt2"})
	require.NoError(t, err)
	assert.Equal(t, `{"error":"Model is loading","estimated_time":20}`, got)
}

func TestHuggingFaceProvider_HTTPError(t *testing.T) {
	srv := newRecordingServer(t, http.StatusServiceUnavailable, `{"error":"overloaded"}`)

	p := NewHuggingFaceProvider(HuggingFaceConfig{APIKey: "hf_test", BaseURL: srv.URL})
	_, err := p.Invoke(context.Background(), llm.Request{Prompt: "x", Model: "gpt2"})
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
	assert.Contains(t, err.Error(), "503")
}

func TestNewTable(t *testing.T) {
	table := NewTable(Config{})
	for _, p := range model.Providers() {
		adapter := table.Get(p)
		require.NotNil(t, adapter, "missing adapter for %s", p)
		assert.Equal(t, p, adapter.Name())
	}
}
