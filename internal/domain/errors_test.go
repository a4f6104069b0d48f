package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"service timeout", &ServiceTimeout{Endpoint: "https://overpass.example", Status: 504}, FailureAreaTooLarge},
		{"deadline exceeded", context.DeadlineExceeded, FailureAreaTooLarge},
		{"wrapped timeout", fmt.Errorf("fetch buildings: %w", &ServiceTimeout{Status: 503}), FailureAreaTooLarge},
		{"network error", &NetworkError{Endpoint: "https://overpass.example", Err: errors.New("connection refused")}, FailureServiceUnavailable},
		{"rate limited", &RateLimited{Endpoint: "https://overpass.example"}, FailureServiceUnavailable},
		{"endpoints exhausted", fmt.Errorf("fetch buildings: %w", ErrEndpointsExhausted), FailureServiceUnavailable},
		{"malformed response", &MalformedResponse{Reason: "missing elements"}, FailureGeneric},
		{"geometry error", &GeometryError{Reason: "self-intersecting"}, FailureGeneric},
		{"plain error", errors.New("boom"), FailureGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	netErr := &NetworkError{Endpoint: "https://a.example", Err: inner}
	assert.Contains(t, netErr.Error(), "https://a.example")
	assert.ErrorIs(t, netErr, inner)

	assert.Contains(t, (&ServiceTimeout{Endpoint: "e", Status: 504}).Error(), "504")
	assert.Contains(t, (&MalformedResponse{Endpoint: "e", Reason: "no features"}).Error(), "no features")
}
