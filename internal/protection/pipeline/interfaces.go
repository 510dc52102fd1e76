package pipeline

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"edgeguard/internal/protection/models"
)

// Allowlist exempts clients from every check.
type Allowlist interface {
	IsAllowlisted(ctx context.Context, client models.ClientKey) bool
}

// BlockRegistry reports active blocks.
type BlockRegistry interface {
	IsBlocked(ctx context.Context, client models.ClientKey) (*models.BlockEntry, bool)
}

// Throttle caps the request rate of the whole instance.
type Throttle interface {
	Allow(ctx context.Context) bool
}

// RateLimiter charges a request against the client's quota.
type RateLimiter interface {
	Consume(ctx context.Context, client models.ClientKey, path string, points int) (*models.RateLimitResult, error)
}

// CredentialValidator classifies a presented credential.
type CredentialValidator interface {
	Validate(presented string) error
}

// FailureTracker escalates repeated credential failures.
type FailureTracker interface {
	RecordFailure(ctx context.Context, client models.ClientKey, kind models.FailureKind) (bool, error)
	RecordSuccess(ctx context.Context, client models.ClientKey)
}
