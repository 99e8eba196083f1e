package llm

import (
	"errors"
	"fmt"

	"github.com/interspecifics/Tbot-writer/model"
)

// Error types for classifying dispatch failures.
// Unknown model ids are reported with model.ErrModelNotFound.

// ConfigurationError reports a user-actionable setup problem such as a missing
// or placeholder credential. It is raised before any network I/O and never retried.
type ConfigurationError struct {
	Provider model.Provider
	Detail   string
}

func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("%s configuration error: %s", e.Provider, e.Detail)
}

// NewConfigurationError creates a ConfigurationError for a provider.
func NewConfigurationError(p model.Provider, format string, args ...any) error {
	return &ConfigurationError{Provider: p, Detail: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a transport, HTTP or parsing failure from one adapter.
type ProviderError struct {
	Provider model.Provider
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Detail)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a failure of provider p.
func NewProviderError(p model.Provider, detail string, err error) error {
	return &ProviderError{Provider: p, Detail: detail, Err: err}
}

// IsConfigurationError returns true if the error is a configuration problem.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsProviderError returns true if the error came from a provider call.
func IsProviderError(err error) bool {
	var provErr *ProviderError
	return errors.As(err, &provErr)
}

// IsModelNotFound returns true if the model id was not in the catalog.
func IsModelNotFound(err error) bool {
	return errors.Is(err, model.ErrModelNotFound)
}
