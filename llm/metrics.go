package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tbot_writer"

var (
	// DispatchTotal counts dispatches by outcome.
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "dispatch_total",
			Help:      "Total number of prompt dispatches",
		},
		[]string{"provider", "model", "status"},
	)

	// DispatchDuration observes provider call latency.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	// PromptChars observes composed prompt length.
	PromptChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prompt",
			Name:      "chars",
			Help:      "Composed prompt length in characters",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 8),
		},
	)
)

// Dispatch outcome labels.
const (
	statusSuccess       = "success"
	statusProviderError = "provider_error"
	statusConfigError   = "config_error"
	statusNotFound      = "model_not_found"
	statusCanceled      = "canceled"
)

// statusOf maps a dispatch error to its outcome label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case IsModelNotFound(err):
		return statusNotFound
	case IsConfigurationError(err):
		return statusConfigError
	case IsProviderError(err):
		return statusProviderError
	default:
		return statusCanceled
	}
}
