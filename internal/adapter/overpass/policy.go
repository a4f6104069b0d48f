package overpass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// Policy is the declarative endpoint-fallback contract for the vector
// feature source: an ordered endpoint list, a bounded retry budget per
// endpoint, a backoff schedule, and the status-code routing rules.
//
// Routing: a 429 is honored with a fixed cooldown and retries the same
// endpoint; 503/504 advance to the next endpoint immediately; transport
// errors retry the same endpoint with backoff until its attempt budget is
// spent; a malformed payload advances (the endpoint answered, its data is
// bad). Every endpoint exhausted is a hard failure.
type Policy struct {
	Endpoints           []string
	AttemptsPerEndpoint int
	InitialBackoff      time.Duration
	MaxBackoff          time.Duration
	RateLimitCooldown   time.Duration
}

// DefaultPolicy returns the production fallback contract over the given
// endpoints.
func DefaultPolicy(endpoints []string) Policy {
	return Policy{
		Endpoints:           endpoints,
		AttemptsPerEndpoint: 2,
		InitialBackoff:      500 * time.Millisecond,
		MaxBackoff:          5 * time.Second,
		RateLimitCooldown:   15 * time.Second,
	}
}

// execute runs do against each endpoint per the routing rules, returning the
// first success or ErrEndpointsExhausted wrapping the last failure.
func (p Policy) execute(ctx context.Context, clock clockwork.Clock, logger *slog.Logger,
	metrics *observability.Metrics, do func(ctx context.Context, endpoint string) error) error {
	if len(p.Endpoints) == 0 {
		return errors.New("no endpoints configured")
	}

	var lastErr error
	for _, endpoint := range p.Endpoints {
		schedule := backoff.NewExponentialBackOff()
		schedule.InitialInterval = p.InitialBackoff
		schedule.MaxInterval = p.MaxBackoff
		schedule.RandomizationFactor = 0

		for attempt := 1; attempt <= p.AttemptsPerEndpoint; attempt++ {
			err := do(ctx, endpoint)
			if err == nil {
				return nil
			}
			lastErr = err

			route, reason := p.route(err)
			logger.Warn("endpoint attempt failed",
				"endpoint", endpoint, "attempt", attempt, "reason", reason, "error", err)
			metrics.EndpointFailover.WithLabelValues(endpoint, reason).Inc()

			if ctx.Err() != nil {
				return ctx.Err()
			}
			if route == routeAdvance {
				break
			}
			// routeRetry: wait out the cooldown or the next backoff interval.
			wait := schedule.NextBackOff()
			if route == routeCooldown {
				wait = p.RateLimitCooldown
			}
			if !sleep(ctx, clock, wait) {
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrEndpointsExhausted, lastErr)
}

const (
	routeRetry    = "retry"
	routeCooldown = "cooldown"
	routeAdvance  = "advance"
)

// route decides whether an error retries the same endpoint or advances to
// the next one, and names the reason for the failover metric.
func (p Policy) route(err error) (route, reason string) {
	var limited *domain.RateLimited
	if errors.As(err, &limited) {
		return routeCooldown, "rate-limited"
	}
	var timeout *domain.ServiceTimeout
	if errors.As(err, &timeout) {
		return routeAdvance, "timeout"
	}
	var malformed *domain.MalformedResponse
	if errors.As(err, &malformed) {
		return routeAdvance, "malformed"
	}
	return routeRetry, "network"
}

// sleep waits for d on the injected clock, honoring cancellation. A
// non-positive duration returns immediately.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
