package oauth

import (
	"time"
)

// TokenEndpointPath is appended to the authority to form the token endpoint.
const TokenEndpointPath = "/as/token.oauth2"

// FailureReason classifies a failed refresh attempt.
type FailureReason string

const (
	// ReasonTransportError means the endpoint could not be reached.
	ReasonTransportError FailureReason = "transport-error"
	// ReasonNonSuccessStatus means the endpoint kept answering non-2xx.
	ReasonNonSuccessStatus FailureReason = "non-success-status"
	// ReasonMalformedResponse means a 2xx body lacked or garbled required fields.
	ReasonMalformedResponse FailureReason = "malformed-response"
)

// TokenBundle is a validated token endpoint response. All fields are
// always populated; ExpiresIn is never negative.
type TokenBundle struct {
	AccessToken  RedactedToken
	RefreshToken RedactedToken
	ExpiresIn    time.Duration
}

// RefreshOutcome is the result of one logical refresh attempt: either a
// bundle, or a failure reason with the error that caused it.
type RefreshOutcome struct {
	Bundle *TokenBundle
	Reason FailureReason
	Err    error
}

// Renewed wraps a successful bundle.
func Renewed(bundle TokenBundle) RefreshOutcome {
	return RefreshOutcome{Bundle: &bundle}
}

// Failed builds a failed outcome.
func Failed(reason FailureReason, err error) RefreshOutcome {
	return RefreshOutcome{Reason: reason, Err: err}
}

// IsRenewed reports whether the outcome carries a bundle.
func (o RefreshOutcome) IsRenewed() bool {
	return o.Bundle != nil
}
