package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ConfigurationError means the provider cannot be used as configured.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm configuration: %s %s", e.Field, e.Reason)
}

// TransportError is a network-level failure talking to the provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means the request exceeded its deadline.
type TimeoutError struct {
	Provider string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s request timed out after %s", e.Provider, e.After)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// StatusError is a non-2xx response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Body)
}

// ParseError means a reply could not be coerced into the expected JSON.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable reply %q: %v", e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind names the error class for logs and diagnostics.
func Kind(err error) string {
	var (
		cfg *ConfigurationError
		tr  *TransportError
		to  *TimeoutError
		st  *StatusError
		pe  *ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfg):
		return "configuration"
	case errors.As(err, &to):
		return "timeout"
	case errors.As(err, &st):
		return "status"
	case errors.As(err, &tr):
		return "transport"
	case errors.As(err, &pe):
		return "parse"
	default:
		return "unknown"
	}
}

// requestError classifies a failed round trip made under ctx.
func requestError(ctx context.Context, provider string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: provider, After: timeout}
	}
	return &TransportError{Provider: provider, Err: err}
}

const maxErrorBody = 512

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
