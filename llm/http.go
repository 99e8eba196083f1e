package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/interspecifics/Tbot-writer/model"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// NewHTTPClient returns an HTTP client bounded by the shared provider timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// DoJSON executes a single JSON request for provider p and returns the raw body.
// payload may be nil for requests without a body. Every failure is a *ProviderError.
func DoJSON(ctx context.Context, client *http.Client, p model.Provider, method, url string, headers map[string]string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewProviderError(p, "build request body", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, NewProviderError(p, "create HTTP request", err)
	}

	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p, "HTTP request failed", err)
	}
	defer httpResp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewProviderError(p, "read response body", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, classifyHTTPError(p, httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

// classifyHTTPError turns a non-2xx response into a ProviderError carrying the status.
func classifyHTTPError(p model.Provider, statusCode int, body []byte) error {
	bodyStr := string(bytes.TrimSpace(body))
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	detail := fmt.Sprintf("status %d %s", statusCode, http.StatusText(statusCode))
	if bodyStr != "" {
		detail += ": " + bodyStr
	}
	return &ProviderError{Provider: p, Detail: detail}
}
