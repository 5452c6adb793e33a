package vision

import "fmt"

// ErrorKind classifies proxy failures
type ErrorKind int

const (
	// ErrMissingCredential means the server-held API key is not configured.
	// Operator-side misconfiguration, fatal for every request until fixed.
	ErrMissingCredential ErrorKind = iota
	// ErrUnauthorized means the upstream rejected the credential. No retry.
	ErrUnauthorized
	// ErrRateLimited means the upstream returned 429. Retryable after the
	// cool-down hint, when one was given.
	ErrRateLimited
	// ErrUpstream covers every other upstream failure, including timeouts.
	ErrUpstream
)

// ProxyError is the normalized upstream failure surface.
type ProxyError struct {
	Kind              ErrorKind
	Message           string
	StatusCode        int
	RetryAfterSeconds int // upstream cool-down hint, 0 when unknown
}

// Error implements the error interface
func (e *ProxyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return e.Message
}
