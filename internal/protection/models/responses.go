package models

import "time"

const (
	ErrorCodeBlocked     = "IP_BLOCKED"
	ErrorCodeRateLimited = "RATE_LIMITED"
	ErrorCodeOverloaded  = "SERVICE_UNAVAILABLE"
)

// ErrorResponse is the body for credential failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BlockedResponse is the 403 body for a blocked client.
type BlockedResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// RateLimitedResponse is the 429 body for an exhausted quota.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// ServiceOverloadedResponse is the 503 body returned by the global throttle.
type ServiceOverloadedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// SecurityStatsResponse is the diagnostics snapshot.
type SecurityStatsResponse struct {
	BlockedIPs  []*BlockEntry      `json:"blockedIPs"`
	RateLimiter RateLimiterSummary `json:"rateLimiter"`
	Allowlist   []ClientKey        `json:"allowlist"`
	// Decisions is omitted when no verdict sink is attached or it cannot be read.
	Decisions   *DecisionSummary `json:"decisions,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// DecisionSummary counts recorded verdicts.
type DecisionSummary struct {
	Total     int64            `json:"total"`
	ByVerdict map[string]int64 `json:"byVerdict"`
}

// RateLimiterSummary reports the limiter configuration; Duration is seconds.
type RateLimiterSummary struct {
	Points   int `json:"points"`
	Duration int `json:"duration"`
}

// BlockResponse acknowledges a manual block.
type BlockResponse struct {
	Block *BlockEntry `json:"block"`
}

// StatusResponse acknowledges an admin mutation.
type StatusResponse struct {
	Status string    `json:"status"`
	IP     ClientKey `json:"ip"`
}
