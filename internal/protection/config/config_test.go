package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "edgeguard/pkg/domain-errors"
)

// =============================================================================
// Protection Config Test Suite
// =============================================================================
// Justification: An invalid accepted-credential set must stop the process
// before it serves traffic. These tests pin every ConfigurationError path.

type ConfigSuite struct {
	suite.Suite
	cfg *Config
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.cfg = DefaultConfig()
	s.cfg.APIKeys = []string{"key-one"}
}

func (s *ConfigSuite) assertConfigError(mutate func(*Config)) {
	mutate(s.cfg)
	err := s.cfg.Validate()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration), "expected configuration error, got %v", err)
}

func (s *ConfigSuite) TestDefaults() {
	s.Equal(60, s.cfg.RateLimit.Points)
	s.Equal(time.Minute, s.cfg.RateLimit.Window)
	s.Equal(3, s.cfg.RateLimit.EscalationMultiplier)
	s.Equal(5, s.cfg.AuthLockout.MaxFailedAttempts)
	s.Equal(time.Hour, s.cfg.AuthLockout.BlockDuration)
	s.Equal(10000, s.cfg.Store.MaxKeys)
	s.NoError(s.cfg.Validate())
}

func (s *ConfigSuite) TestValidate() {
	s.Run("empty credential set", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.APIKeys = nil })
	})

	s.Run("blank credential", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.APIKeys = []string{"ok", "  "} })
	})

	s.Run("non-positive capacity", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.RateLimit.Points = 0 })
	})

	s.Run("non-positive window", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.RateLimit.Window = 0 })
	})

	s.Run("escalation without block duration", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.RateLimit.EscalationBlock = 0 })
	})

	s.Run("escalation disabled needs no block duration", func() {
		s.SetupTest()
		s.cfg.RateLimit.EscalationMultiplier = 0
		s.cfg.RateLimit.EscalationBlock = 0
		s.NoError(s.cfg.Validate())
	})

	s.Run("invalid route limit", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.RouteLimits = []RouteLimit{{Prefix: "/api", Points: 0, Window: time.Minute}} })
	})

	s.Run("invalid lockout", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.AuthLockout.MaxFailedAttempts = 0 })
	})

	s.Run("invalid exclusion pattern", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.ExcludePathPatterns = []string{"("} })
	})

	s.Run("invalid trusted proxy", func() {
		s.SetupTest()
		s.assertConfigError(func(c *Config) { c.TrustedProxies = []string{"not-a-cidr"} })
	})
}

func (s *ConfigSuite) TestTrustedProxyPrefixes() {
	s.cfg.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.7"}
	prefixes, err := s.cfg.TrustedProxyPrefixes()
	s.Require().NoError(err)
	s.Require().Len(prefixes, 2)
	s.Equal("10.0.0.0/8", prefixes[0].String())
	s.Equal("192.0.2.7/32", prefixes[1].String())
}

func (s *ConfigSuite) TestExclusionPatterns() {
	s.cfg.ExcludePathPatterns = []string{`^/static/.*\.png$`}
	patterns, err := s.cfg.ExclusionPatterns()
	s.Require().NoError(err)
	s.Require().Len(patterns, 1)
	s.True(patterns[0].MatchString("/static/logo.png"))
}
