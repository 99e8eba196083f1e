package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/llm/testutil"
	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/profile"
	"github.com/interspecifics/Tbot-writer/prompt"
)

func newDispatcher(providers ...llm.Provider) *llm.Dispatcher {
	composer := prompt.NewComposer(prompt.DefaultStyles(), profile.NewStaticStore(profile.DefaultSnapshot()))
	return llm.NewDispatcher(model.NewDefaultRegistry(), composer, llm.NewProviderTable(providers...))
}

func TestDispatch_RoutesByProvider(t *testing.T) {
	ollama := &testutil.MockProvider{Provider: model.ProviderOllama, Responses: []string{"The hull sang."}}
	openai := &testutil.MockProvider{Provider: model.ProviderOpenAI, Responses: []string{"unused"}}
	d := newDispatcher(ollama, openai)

	res, err := d.Dispatch(context.Background(), llm.DispatchRequest{
		Text:    "The ship drifted.",
		Style:   "sci-fi",
		Persona: "cyra",
		Model:   "mistral",
	})
	require.NoError(t, err)

	assert.Equal(t, "The hull sang.", res.Text)
	assert.Equal(t, model.ProviderOllama, res.Provider)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, 1, ollama.GetCallCount())
	assert.Equal(t, 0, openai.GetCallCount())

	req := ollama.LastRequest()
	assert.Equal(t, "mistral", req.Model)
	assert.Equal(t, llm.DefaultMaxTokens, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, llm.DefaultTemperature, *req.Temperature)
	assert.Contains(t, req.Prompt, "The ship drifted.")
	assert.Equal(t, d.Compose(llm.DispatchRequest{Text: "The ship drifted.", Style: "sci-fi", Persona: "cyra"}), req.Prompt)
}

func TestDispatch_PassesCallStyle(t *testing.T) {
	openai := &testutil.MockProvider{Provider: model.ProviderOpenAI, Responses: []string{"a", "b"}}
	d := newDispatcher(openai)

	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, model.CallStyleChat, openai.LastRequest().CallStyle)

	_, err = d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "gpt-3.5-turbo-instruct"})
	require.NoError(t, err)
	assert.Equal(t, model.CallStyleCompletion, openai.LastRequest().CallStyle)
}

func TestDispatch_UnknownModel(t *testing.T) {
	ollama := &testutil.MockProvider{Provider: model.ProviderOllama}
	d := newDispatcher(ollama)

	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "gpt-5"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrModelNotFound))
	assert.True(t, llm.IsModelNotFound(err))
	assert.Equal(t, 0, ollama.GetCallCount())
}

func TestDispatch_MissingAdapter(t *testing.T) {
	d := newDispatcher()

	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "llama2"})
	require.Error(t, err)
	assert.True(t, llm.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "ollama")
}

func TestDispatch_ErrorsPropagateUnchanged(t *testing.T) {
	upstream := llm.NewProviderError(model.ProviderHuggingFace, "status 503 Service Unavailable", nil)
	hf := &testutil.MockProvider{Provider: model.ProviderHuggingFace, Err: upstream}
	d := newDispatcher(hf)

	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "microsoft/DialoGPT-medium"})
	require.Error(t, err)
	assert.Same(t, upstream, err)
	assert.Equal(t, 1, hf.GetCallCount(), "no retry")
}

func TestDispatch_CanceledBeforeCall(t *testing.T) {
	ollama := &testutil.MockProvider{Provider: model.ProviderOllama, Responses: []string{"x"}}
	d := newDispatcher(ollama)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, llm.DispatchRequest{Text: "x", Model: "llama2"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ollama.GetCallCount())
}

func TestDispatch_CustomSampling(t *testing.T) {
	ollama := &testutil.MockProvider{Provider: model.ProviderOllama, Responses: []string{"x"}}
	d := newDispatcher(ollama)

	temp := 0.0
	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "llama2", MaxTokens: 42, Temperature: &temp})
	require.NoError(t, err)

	req := ollama.LastRequest()
	assert.Equal(t, 42, req.MaxTokens)
	assert.Equal(t, 0.0, req.TemperatureValue())
}

func TestDispatch_ComposeIncludesElements(t *testing.T) {
	d := newDispatcher()

	got := d.Compose(llm.DispatchRequest{Text: "x", Elements: []string{"glacial_memory", "missing"}})
	assert.Contains(t, got, "- glacial_memory: ")
	assert.False(t, strings.Contains(got, "missing"))
}

func TestDispatch_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	hf := &testutil.MockProvider{
		Provider: model.ProviderHuggingFace,
		Err:      llm.NewProviderError(model.ProviderHuggingFace, "status 401 Unauthorized", nil),
	}
	composer := prompt.NewComposer(prompt.DefaultStyles(), profile.NewStaticStore(profile.DefaultSnapshot()))
	d := llm.NewDispatcher(model.NewDefaultRegistry(), composer, llm.NewProviderTable(hf),
		llm.WithTracer(tp.Tracer("test")))

	_, err := d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "gpt2-missing"})
	require.Error(t, err)
	_, err = d.Dispatch(context.Background(), llm.DispatchRequest{Text: "x", Model: "microsoft/DialoGPT-medium"})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, span := range spans {
		assert.Equal(t, "llm.dispatch", span.Name())
		assert.Equal(t, codes.Error, span.Status().Code)
	}

	var provider string
	for _, kv := range spans[1].Attributes() {
		if kv.Key == "llm.provider" {
			provider = kv.Value.AsString()
		}
	}
	assert.Equal(t, "huggingface", provider)
}
