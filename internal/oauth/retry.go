package oauth

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"k8s.io/utils/clock"

	"bffgate/pkg/logging"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt.
	DefaultMaxRetries = 6

	// DefaultBaseDelay is the delay before the first retry. Each further
	// retry doubles it: 2s, 4s, 8s, 16s, 32s, 64s.
	DefaultBaseDelay = 2 * time.Second
)

// Call is one attempt against the token endpoint.
type Call func(ctx context.Context) (*EndpointResponse, error)

// RetryNotify is invoked before each backoff wait with the error that caused
// the retry and the delay about to be taken.
type RetryNotify func(err error, delay time.Duration)

// RetryPolicy retries token endpoint calls that failed transiently or hit a
// 404. It holds configuration only and is safe for concurrent use.
type RetryPolicy struct {
	clock      clock.Clock
	maxRetries int
	baseDelay  time.Duration
	notify     RetryNotify
}

// RetryOption configures a RetryPolicy.
type RetryOption func(*RetryPolicy)

// WithClock sets the clock used for backoff waits.
func WithClock(c clock.Clock) RetryOption {
	return func(p *RetryPolicy) {
		p.clock = c
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) RetryOption {
	return func(p *RetryPolicy) {
		p.maxRetries = n
	}
}

// WithBaseDelay sets the delay before the first retry.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		p.baseDelay = d
	}
}

// WithRetryNotify registers a callback run before every backoff wait.
func WithRetryNotify(fn RetryNotify) RetryOption {
	return func(p *RetryPolicy) {
		p.notify = fn
	}
}

// NewRetryPolicy creates a retry policy with the default schedule.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		clock:      clock.RealClock{},
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Do runs call, retrying retryable failures on the exponential schedule.
// A non-retryable result is returned as soon as it is seen. When retries are
// exhausted the last observed response or error is returned. A non-2xx
// response is always returned together with a *StatusError.
func (p *RetryPolicy) Do(ctx context.Context, call Call) (*EndpointResponse, error) {
	schedule := p.newBackOff()

	for attempt := 0; ; attempt++ {
		resp, err := call(ctx)
		if err == nil && resp == nil {
			err = errors.New("token endpoint call returned no response")
		}
		if err == nil && !resp.Success() {
			err = &StatusError{StatusCode: resp.StatusCode}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !IsRetryable(err) || attempt >= p.maxRetries {
			return resp, err
		}

		delay := schedule.NextBackOff()
		logging.Debug("Refresh", "Token endpoint attempt %d failed, retrying in %s: %v", attempt+1, delay, err)
		if p.notify != nil {
			p.notify(err, delay)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(delay):
		}
	}
}

// newBackOff returns a fresh, jitter-free doubling schedule. The schedule is
// stateful, so each logical call gets its own.
func (p *RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.baseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.Reset()
	return b
}
