package apiclient

import (
	"errors"
	"fmt"
)

// UpstreamError is a non-200, non-429 response from the remote API.
// It is terminal: the client does not retry it.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// TransportError is a network-level failure before any HTTP status was
// received. It is terminal: the client does not retry it.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// RetriesExhaustedError is returned after the client has retried a
// rate-limited request up to the policy's attempt bound.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// errRateLimited is the per-attempt 429 marker held by RetriesExhaustedError.
var errRateLimited = errors.New("rate limited (429)")

// IsRetriesExhausted reports whether err is a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	var re *RetriesExhaustedError
	return errors.As(err, &re)
}
