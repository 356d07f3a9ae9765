package sharpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors for SharpAPI client failures.
var (
	ErrMissingAPIKey = errors.New("sharpapi: API key is required")
	ErrUnreachable   = errors.New("sharpapi unreachable")
	ErrTimeout       = errors.New("sharpapi request timeout")
	ErrDecode        = errors.New("sharpapi: malformed response body")
	ErrUpstream      = errors.New("sharpapi returned an error status")
)

// TransportError reports a failed exchange with the remote service: either a
// non-2xx response (StatusCode and Body set) or a network failure (Err set).
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sharpapi: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 512))
	}
	return fmt.Sprintf("sharpapi: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUpstream
}

// StatusText returns the HTTP status text, or "" for network failures.
func (e *TransportError) StatusText() string {
	if e.StatusCode == 0 {
		return ""
	}
	return http.StatusText(e.StatusCode)
}

// classifyError maps transport-level errors to sentinel errors. A canceled
// context is returned as is: the caller gave up, the remote did not time out.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
