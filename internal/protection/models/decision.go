package models

import (
	dErrors "edgeguard/pkg/domain-errors"
)

// Verdict is the pipeline's ruling on one request.
type Verdict string

const (
	VerdictAdmit             Verdict = "admit"
	VerdictAllowlisted       Verdict = "allowlisted"
	VerdictExcluded          Verdict = "excluded"
	VerdictBlocked           Verdict = "blocked"
	VerdictRateLimited       Verdict = "rate_limited"
	VerdictOverloaded        Verdict = "overloaded"
	VerdictMissingCredential Verdict = "missing_credential"
	VerdictInvalidCredential Verdict = "invalid_credential"
)

// Admitted reports whether the request may reach downstream handlers.
func (v Verdict) Admitted() bool {
	switch v {
	case VerdictAdmit, VerdictAllowlisted, VerdictExcluded:
		return true
	}
	return false
}

// Decision carries the verdict plus the state the boundary needs to render it.
type Decision struct {
	Verdict   Verdict
	Client    ClientKey
	RateLimit *RateLimitResult
	Block     *BlockEntry
	// Escalated is set when this request caused the client to be blocked.
	Escalated bool
}

// Err returns the domain error for a rejecting verdict, or nil when admitted.
func (d *Decision) Err() error {
	switch d.Verdict {
	case VerdictMissingCredential:
		return ErrMissingCredential
	case VerdictInvalidCredential:
		return ErrInvalidCredential
	case VerdictRateLimited:
		return ErrRateLimited
	case VerdictBlocked:
		return ErrClientBlocked
	case VerdictOverloaded:
		return ErrOverloaded
	}
	return nil
}

const (
	MessageMissingCredential = "Missing API Key in x-api-key header"
	MessageInvalidCredential = "Unauthorized: Invalid API Key"
	MessageRateLimited       = "Too many requests"
	MessageClientBlocked     = "IP blocked"
	MessageOverloaded        = "Server is handling too many requests. Please retry shortly."
)

var (
	ErrMissingCredential = dErrors.New(dErrors.CodeBadRequest, MessageMissingCredential)
	ErrInvalidCredential = dErrors.New(dErrors.CodeUnauthorized, MessageInvalidCredential)
	ErrRateLimited       = dErrors.New(dErrors.CodeTooManyRequests, MessageRateLimited)
	ErrClientBlocked     = dErrors.New(dErrors.CodeForbidden, MessageClientBlocked)
	ErrOverloaded        = dErrors.New(dErrors.CodeUnavailable, MessageOverloaded)
)

// ConfigurationError reports an invalid protection setup. It is fatal at startup.
func ConfigurationError(msg string) error {
	return dErrors.New(dErrors.CodeConfiguration, msg)
}
