// Package llm routes composed prompts to provider adapters.
// Adapters normalize three wire protocols into one call contract and one error taxonomy.
package llm

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/interspecifics/Tbot-writer/model"
	"github.com/interspecifics/Tbot-writer/prompt"
	"github.com/interspecifics/Tbot-writer/source"
)

const tracerName = "github.com/interspecifics/Tbot-writer/llm"

// DispatchRequest is one co-writing request.
type DispatchRequest struct {
	// Text is the user's narrative fragment.
	Text string

	// Style is the style key.
	Style string

	// Elements are element keys to weave in.
	Elements []string

	// Persona is the persona key, or empty for none.
	Persona string

	// Model is the catalog model id.
	Model string

	// Materials are loaded style references.
	Materials []source.Material

	// MaxTokens limits response length. 0 uses DefaultMaxTokens.
	MaxTokens int

	// Temperature controls randomness. nil uses DefaultTemperature.
	Temperature *float64
}

// Result is a completed dispatch.
type Result struct {
	// RequestID identifies this dispatch in logs and traces.
	RequestID string

	// Text is the continuation returned by the provider.
	Text string

	// Provider is the backend that served the request.
	Provider model.Provider

	// Model is the model id that was used.
	Model string

	// Duration is the provider call time.
	Duration time.Duration
}

// Dispatcher composes a prompt and sends it to the adapter for the model's provider.
// It holds no per-request state; each Dispatch is one round trip with no retry.
type Dispatcher struct {
	registry  *model.Registry
	composer  *prompt.Composer
	providers ProviderTable
	logger    *slog.Logger
	tracer    trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(registry *model.Registry, composer *prompt.Composer, providers ProviderTable, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		composer:  composer,
		providers: providers,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Registry returns the model registry.
func (d *Dispatcher) Registry() *model.Registry {
	return d.registry
}

// SetProviders replaces the adapter table, e.g. after a credential changes.
// Not safe to call while a Dispatch is in flight.
func (d *Dispatcher) SetProviders(providers ProviderTable) {
	d.providers = providers
}

// Compose builds the prompt for req without sending it.
func (d *Dispatcher) Compose(req DispatchRequest) string {
	return d.composer.Compose(prompt.Request{
		Text:      req.Text,
		Style:     req.Style,
		Persona:   req.Persona,
		Elements:  req.Elements,
		Materials: req.Materials,
	})
}

// Dispatch composes the prompt, resolves the model's provider and invokes its adapter.
// Errors are returned unchanged: model.ErrModelNotFound for unknown ids,
// *ConfigurationError for a missing adapter or credential, *ProviderError for call failures.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*Result, error) {
	requestID := uuid.New().String()

	ctx, span := d.tracer.Start(ctx, "llm.dispatch", trace.WithAttributes(
		attribute.String("llm.request_id", requestID),
		attribute.String("llm.model", req.Model),
		attribute.String("prompt.style", req.Style),
	))
	defer span.End()

	text := d.Compose(req)
	PromptChars.Observe(float64(utf8.RuneCountInString(text)))

	entry, err := d.registry.Resolve(req.Model)
	if err != nil {
		return nil, d.fail(span, requestID, "", req.Model, err)
	}

	span.SetAttributes(attribute.String("llm.provider", string(entry.Provider)))

	provider := d.providers.Get(entry.Provider)
	if provider == nil {
		err := NewConfigurationError(entry.Provider, "no adapter configured")
		return nil, d.fail(span, requestID, entry.Provider, req.Model, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, d.fail(span, requestID, entry.Provider, req.Model, err)
	}

	d.logger.Debug("Dispatching prompt",
		"request_id", requestID,
		"provider", entry.Provider,
		"model", req.Model,
		"prompt_chars", utf8.RuneCountInString(text),
		"materials", len(req.Materials))

	start := time.Now()
	out, err := provider.Invoke(ctx, Request{
		Prompt:      text,
		Model:       entry.ID,
		CallStyle:   entry.CallStyle,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}.WithDefaults())
	elapsed := time.Since(start)

	DispatchDuration.WithLabelValues(string(entry.Provider), req.Model).Observe(elapsed.Seconds())

	if err != nil {
		return nil, d.fail(span, requestID, entry.Provider, req.Model, err)
	}

	DispatchTotal.WithLabelValues(string(entry.Provider), req.Model, statusSuccess).Inc()
	span.SetAttributes(attribute.Int("llm.response_chars", utf8.RuneCountInString(out)))

	d.logger.Info("Continuation received",
		"request_id", requestID,
		"provider", entry.Provider,
		"model", req.Model,
		"duration", elapsed)

	return &Result{
		RequestID: requestID,
		Text:      out,
		Provider:  entry.Provider,
		Model:     entry.ID,
		Duration:  elapsed,
	}, nil
}

// fail records a failed dispatch and returns err unchanged.
func (d *Dispatcher) fail(span trace.Span, requestID string, p model.Provider, modelID string, err error) error {
	DispatchTotal.WithLabelValues(string(p), modelID, statusOf(err)).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	d.logger.Warn("Dispatch failed",
		"request_id", requestID,
		"provider", p,
		"model", modelID,
		"error", err)

	return err
}
