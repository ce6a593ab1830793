package oauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"bffgate/pkg/logging"
)

// ClientCredentials identifies the gateway to the identity provider.
type ClientCredentials struct {
	Authority    string
	ClientID     string
	ClientSecret string
}

// TokenEndpoint returns the refresh endpoint URL for the authority.
func (c ClientCredentials) TokenEndpoint() string {
	return strings.TrimSuffix(c.Authority, "/") + TokenEndpointPath
}

// DefaultRefreshTimeout bounds a whole refresh. It covers the default
// 126s backoff schedule and stays below the server's write timeout, so a
// rotated refresh token always reaches the client.
const DefaultRefreshTimeout = 150 * time.Second

// RefreshObserver receives the result of each refresh attempt. It is
// implemented by the metrics package.
type RefreshObserver interface {
	ObserveRefresh(outcome RefreshOutcome, duration time.Duration)
}

// TokenRefresher exchanges a refresh token for a new token bundle.
type TokenRefresher struct {
	credentials ClientCredentials
	client      TokenEndpointClient
	retry       *RetryPolicy
	clock       clock.Clock
	timeout     time.Duration
	observer    RefreshObserver
}

// RefresherOption configures a TokenRefresher.
type RefresherOption func(*TokenRefresher)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy *RetryPolicy) RefresherOption {
	return func(r *TokenRefresher) {
		r.retry = policy
	}
}

// WithObserver registers a refresh observer.
func WithObserver(observer RefreshObserver) RefresherOption {
	return func(r *TokenRefresher) {
		r.observer = observer
	}
}

// WithRefreshTimeout bounds one logical refresh, every retry and backoff
// wait included. Zero leaves the refresh bounded only by the caller's
// context.
func WithRefreshTimeout(d time.Duration) RefresherOption {
	return func(r *TokenRefresher) {
		r.timeout = d
	}
}

// WithRefresherClock sets the clock used to time refresh attempts.
func WithRefresherClock(c clock.Clock) RefresherOption {
	return func(r *TokenRefresher) {
		r.clock = c
	}
}

// NewTokenRefresher creates a refresher that posts to the credentials'
// token endpoint through client.
func NewTokenRefresher(credentials ClientCredentials, client TokenEndpointClient, opts ...RefresherOption) *TokenRefresher {
	r := &TokenRefresher{
		credentials: credentials,
		client:      client,
		clock:       clock.RealClock{},
		timeout:     DefaultRefreshTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.retry == nil {
		r.retry = NewRetryPolicy(WithClock(r.clock))
	}

	return r
}

// Refresh performs one logical refresh. It never panics and never returns
// an error directly: every failure is a Failed outcome. Cancellation of ctx
// yields a Failed outcome whose Err is the context error. Running out of the
// refresh timeout is a transport-error whose Err is
// context.DeadlineExceeded.
func (r *TokenRefresher) Refresh(ctx context.Context, refreshToken string) RefreshOutcome {
	start := r.clock.Now()
	outcome := r.refresh(ctx, refreshToken)

	if r.observer != nil && ctx.Err() == nil {
		r.observer.ObserveRefresh(outcome, r.clock.Now().Sub(start))
	}

	if outcome.IsRenewed() {
		logging.Info("Refresh", "Refreshed token lineage=%s expires_in=%s",
			Fingerprint(refreshToken), outcome.Bundle.ExpiresIn)
	} else if ctx.Err() == nil {
		logging.Warn("Refresh", "Token refresh failed lineage=%s reason=%s: %v",
			Fingerprint(refreshToken), outcome.Reason, outcome.Err)
	}

	return outcome
}

func (r *TokenRefresher) refresh(ctx context.Context, refreshToken string) RefreshOutcome {
	form := url.Values{
		"client_id":     {r.credentials.ClientID},
		"client_secret": {r.credentials.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := r.credentials.TokenEndpoint()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.retry.Do(ctx, func(ctx context.Context) (*EndpointResponse, error) {
		return r.client.PostForm(ctx, endpoint, form)
	})
	if err != nil {
		return classify(err)
	}

	bundle, err := DecodeTokenResponse(resp.Body)
	if err != nil {
		logging.Debug("Refresh", "Token response rejected: status=%d: %v", resp.StatusCode, err)
		return Failed(ReasonMalformedResponse, err)
	}

	return Renewed(bundle)
}

// classify maps the last error seen by the retry policy onto a reason.
func classify(err error) RefreshOutcome {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return Failed(ReasonNonSuccessStatus, err)
	default:
		return Failed(ReasonTransportError, err)
	}
}
