package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "edgeguard/pkg/domain-errors"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(envOf(map[string]string{"API_KEY": "k1"}))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, []string{"k1"}, cfg.Protection.APIKeys)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Protection.Allowlist)
	assert.Equal(t, 60, cfg.Protection.RateLimit.Points)
	assert.Equal(t, time.Minute, cfg.Protection.RateLimit.Window)
	assert.Equal(t, 48*time.Hour, cfg.Protection.Block.ManualDuration)
	assert.Empty(t, cfg.AdminToken)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := load(envOf(map[string]string{
		"EDGEGUARD_ADDR":        ":9000",
		"API_KEYS":              "a, b ,,c",
		"ALLOWLIST":             "10.0.0.1,10.0.0.2",
		"RATE_LIMIT_POINTS":     "100",
		"RATE_LIMIT_WINDOW":     "90",
		"FAILURE_WINDOW":        "30m",
		"GLOBAL_RPS":            "250.5",
		"EXCLUDE_PATH_PATTERNS": `^/static/.*\.css$`,
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Protection.APIKeys)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Protection.Allowlist)
	assert.Equal(t, 100, cfg.Protection.RateLimit.Points)
	assert.Equal(t, 90*time.Second, cfg.Protection.RateLimit.Window, "bare integers are seconds")
	assert.Equal(t, 30*time.Minute, cfg.Protection.AuthLockout.FailureWindow)
	assert.InDelta(t, 250.5, cfg.Protection.Global.RequestsPerSecond, 0.001)
}

func TestLoadErrorsAreConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no api key", map[string]string{}},
		{"bad integer", map[string]string{"API_KEY": "k", "RATE_LIMIT_POINTS": "lots"}},
		{"bad duration", map[string]string{"API_KEY": "k", "FAILURE_WINDOW": "soon"}},
		{"zero points", map[string]string{"API_KEY": "k", "RATE_LIMIT_POINTS": "0"}},
		{"bad pattern", map[string]string{"API_KEY": "k", "EXCLUDE_PATH_PATTERNS": "("}},
		{"missing file", map[string]string{"API_KEY": "k", "EDGEGUARD_CONFIG": "/does/not/exist.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(envOf(tt.env))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration), "got %v", err)
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edgeguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_keys = ["from-file"]
exclude_path_prefixes = ["/public/"]

[rate_limit]
points = 10
window = "30s"

[[route_limits]]
prefix = "/api/generate-video"
points = 2
window = "10m"
`), 0o600))

	cfg, err := load(envOf(map[string]string{
		"EDGEGUARD_CONFIG":  path,
		"RATE_LIMIT_POINTS": "20",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"from-file"}, cfg.Protection.APIKeys)
	assert.Equal(t, 20, cfg.Protection.RateLimit.Points, "environment wins over the file")
	assert.Equal(t, 30*time.Second, cfg.Protection.RateLimit.Window)
	assert.Equal(t, 3, cfg.Protection.RateLimit.EscalationMultiplier, "unset keys keep defaults")
	require.Len(t, cfg.Protection.RouteLimits, 1)
	assert.Equal(t, 10*time.Minute, cfg.Protection.RouteLimits[0].Window)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edgeguard.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_keys = [\"k\"]\nrate_limt = 3\n"), 0o600))

	_, err := load(envOf(map[string]string{"EDGEGUARD_CONFIG": path}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
}
