// Package model holds the text-in/text-out gateways to the hosted and
// local inference services, plus tolerant JSON recovery over their output.
package model

import (
	"context"
	"fmt"
)

// Request is one inference call. Prompt is the single user message;
// System is optional instruction text.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
	WantJSON    bool // hint for gateways that support constrained JSON output
}

// Gateway is the stateless request/response contract both model services
// implement. Failures of any kind surface as an error; callers degrade
// to "no result for this item" rather than aborting the run.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// RetryableError indicates a transient upstream failure (throttling or
// 5xx). No retry is built in here; the type lets a caller add one.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
