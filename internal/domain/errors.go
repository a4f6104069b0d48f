package domain

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError is a transport-level failure: connection refused, DNS, reset.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error contacting %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceTimeout is a server-side timeout or overload response (5xx or a
// slow response that exceeded the request deadline).
type ServiceTimeout struct {
	Endpoint string
	Status   int
}

func (e *ServiceTimeout) Error() string {
	return fmt.Sprintf("service timeout from %s (status %d)", e.Endpoint, e.Status)
}

// RateLimited is an HTTP 429 response.
type RateLimited struct {
	Endpoint string
}

func (e *RateLimited) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Endpoint)
}

// MalformedResponse marks a response missing the expected element or feature
// payload.
type MalformedResponse struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

// GeometryError marks degenerate or unprocessable input geometry, either the
// analysis polygon itself or a single commune during apportionment.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry error: " + e.Reason
}

// ErrEndpointsExhausted is returned when every configured endpoint has been
// tried and failed.
var ErrEndpointsExhausted = errors.New("all endpoints exhausted")

// FailureClass is the user-facing classification of an analysis failure,
// used to pick a friendly message. Full error detail stays in the logs.
type FailureClass string

const (
	FailureAreaTooLarge       FailureClass = "area-too-large"
	FailureServiceUnavailable FailureClass = "service-unavailable"
	FailureGeneric            FailureClass = "failed"
)

// Classify reduces an analysis error to its user-facing class. An exhausted
// endpoint chain reads as "service unavailable" even when the final failure
// in the chain was a timeout.
func Classify(err error) FailureClass {
	var netErr *NetworkError
	var limited *RateLimited
	if errors.As(err, &netErr) || errors.As(err, &limited) ||
		errors.Is(err, ErrEndpointsExhausted) {
		return FailureServiceUnavailable
	}

	var timeout *ServiceTimeout
	if errors.As(err, &timeout) || errors.Is(err, context.DeadlineExceeded) {
		return FailureAreaTooLarge
	}

	return FailureGeneric
}
