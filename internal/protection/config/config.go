package config

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
	"time"

	"edgeguard/internal/protection/models"
)

// Config holds the protection layer configuration.
type Config struct {
	// APIKeys is the accepted credential set. At least one non-blank key is required.
	APIKeys []string `toml:"api_keys"`

	// Allowlist holds client keys exempt from every check.
	Allowlist []string `toml:"allowlist"`

	// ExcludePathPrefixes and ExcludePathPatterns name paths that skip protection.
	ExcludePathPrefixes []string `toml:"exclude_path_prefixes"`
	ExcludePathPatterns []string `toml:"exclude_path_patterns"`

	// TrustedProxies (CIDR) restricts who may set X-Forwarded-For. Empty trusts any peer.
	TrustedProxies []string `toml:"trusted_proxies"`

	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	RouteLimits []RouteLimit      `toml:"route_limits"`
	AuthLockout AuthLockoutConfig `toml:"auth_lockout"`
	Block       BlockConfig       `toml:"block"`
	Store       StoreConfig       `toml:"store"`
	Global      GlobalLimit       `toml:"global"`
}

// RateLimitConfig defines the layer-wide fixed window.
type RateLimitConfig struct {
	Points int           `toml:"points"` // capacity per window
	Window time.Duration `toml:"window"`

	// EscalationMultiplier blocks a client whose attempted points in one
	// window exceed Points*EscalationMultiplier. Zero disables escalation.
	EscalationMultiplier int           `toml:"escalation_multiplier"`
	EscalationBlock      time.Duration `toml:"escalation_block"`
}

// RouteLimit overrides the window for paths under Prefix.
type RouteLimit struct {
	Prefix string        `toml:"prefix"`
	Points int           `toml:"points"`
	Window time.Duration `toml:"window"`
}

// AuthLockoutConfig defines failed-credential escalation.
type AuthLockoutConfig struct {
	MaxFailedAttempts int           `toml:"max_failed_attempts"` // 5 failures
	FailureWindow     time.Duration `toml:"failure_window"`      // refreshed on each failure
	BlockDuration     time.Duration `toml:"block_duration"`
}

// BlockConfig defines manual block defaults.
type BlockConfig struct {
	ManualDuration time.Duration `toml:"manual_duration"`
}

// StoreConfig bounds the in-memory stores.
type StoreConfig struct {
	MaxKeys       int           `toml:"max_keys"` // per store
	SweepInterval time.Duration `toml:"sweep_interval"`
	SweepBatch    int           `toml:"sweep_batch"` // max evictions per shard per sweep
}

// GlobalLimit defines the optional instance-wide throttle.
type GlobalLimit struct {
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables
	Burst             int     `toml:"burst"`
}

// DefaultConfig returns the production defaults: 60 points per 60s, 3x
// escalation into a one hour block, 5 credential failures per hour.
func DefaultConfig() *Config {
	return &Config{
		Allowlist: []string{"127.0.0.1"},
		RateLimit: RateLimitConfig{
			Points:               60,
			Window:               time.Minute,
			EscalationMultiplier: 3,
			EscalationBlock:      time.Hour,
		},
		AuthLockout: AuthLockoutConfig{
			MaxFailedAttempts: 5,
			FailureWindow:     time.Hour,
			BlockDuration:     time.Hour,
		},
		Block: BlockConfig{
			ManualDuration: 48 * time.Hour,
		},
		Store: StoreConfig{
			MaxKeys:       10000,
			SweepInterval: 10 * time.Minute,
			SweepBatch:    1024,
		},
	}
}

// Validate checks the configuration. Every failure is a ConfigurationError.
func (c *Config) Validate() error {
	if len(c.APIKeys) == 0 {
		return models.ConfigurationError("at least one API key is required")
	}
	for i, key := range c.APIKeys {
		if strings.TrimSpace(key) == "" {
			return models.ConfigurationError(fmt.Sprintf("API key %d is blank", i))
		}
	}
	if c.RateLimit.Points <= 0 {
		return models.ConfigurationError("rate limit points must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return models.ConfigurationError("rate limit window must be positive")
	}
	if c.RateLimit.EscalationMultiplier < 0 {
		return models.ConfigurationError("escalation multiplier cannot be negative")
	}
	if c.RateLimit.EscalationMultiplier > 0 && c.RateLimit.EscalationBlock <= 0 {
		return models.ConfigurationError("escalation block duration must be positive")
	}
	for _, rl := range c.RouteLimits {
		if rl.Prefix == "" || rl.Points <= 0 || rl.Window <= 0 {
			return models.ConfigurationError(fmt.Sprintf("invalid route limit for %q", rl.Prefix))
		}
	}
	if c.AuthLockout.MaxFailedAttempts <= 0 {
		return models.ConfigurationError("max failed attempts must be positive")
	}
	if c.AuthLockout.FailureWindow <= 0 || c.AuthLockout.BlockDuration <= 0 {
		return models.ConfigurationError("failure window and block duration must be positive")
	}
	if c.Block.ManualDuration <= 0 {
		return models.ConfigurationError("manual block duration must be positive")
	}
	if c.Store.MaxKeys <= 0 {
		return models.ConfigurationError("store max keys must be positive")
	}
	if c.Global.RequestsPerSecond < 0 || c.Global.Burst < 0 {
		return models.ConfigurationError("global throttle cannot be negative")
	}
	if _, err := c.ExclusionPatterns(); err != nil {
		return err
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// ExclusionPatterns compiles ExcludePathPatterns.
func (c *Config) ExclusionPatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.ExcludePathPatterns))
	for _, p := range c.ExcludePathPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, models.ConfigurationError(fmt.Sprintf("invalid exclusion pattern %q: %v", p, err))
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become single-host prefixes.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, models.ConfigurationError(fmt.Sprintf("invalid trusted proxy %q", raw))
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
