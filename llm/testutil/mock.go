// Package testutil provides test doubles for the llm package.
package testutil

import (
	"context"
	"sync"

	"github.com/interspecifics/Tbot-writer/llm"
	"github.com/interspecifics/Tbot-writer/model"
)

// MockProvider is a thread-safe provider adapter for tests.
// It records every request and returns configured responses in sequence.
//
// Usage:
//
//	mock := &MockProvider{
//	    Provider:  model.ProviderOllama,
//	    Responses: []string{"The hull sang."},
//	}
//
//	// Error response
//	mock := &MockProvider{
//	    Provider: model.ProviderOpenAI,
//	    Err:      llm.NewConfigurationError(model.ProviderOpenAI, "missing key"),
//	}
type MockProvider struct {
	Provider  model.Provider
	Responses []string // Responses to return in sequence
	Err       error    // Error to return (takes precedence over Responses)

	mu            sync.Mutex
	requests      []llm.Request
	responseIndex int
}

// Name implements llm.Provider.
func (m *MockProvider) Name() model.Provider {
	return m.Provider
}

// Invoke implements llm.Provider.
// Returns the next response from Responses, or Err if set.
func (m *MockProvider) Invoke(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.Err != nil {
		return "", m.Err
	}

	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	return "", nil
}

// GetCallCount returns the number of times Invoke() was called.
func (m *MockProvider) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or a zero Request.
func (m *MockProvider) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears recorded calls and the response index.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.responseIndex = 0
}
