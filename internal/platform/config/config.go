package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	protection "edgeguard/internal/protection/config"
	"edgeguard/internal/protection/models"
	platformstrings "edgeguard/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	// AdminToken gates /admin when set. Empty mounts the admin routes ungated.
	AdminToken string

	Redis      RedisConfig
	Completion CompletionConfig
	Render     RenderConfig
	Protection *protection.Config
}

// RedisConfig configures the optional decision statistics sink.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StatsTTL     time.Duration
}

// CompletionConfig configures the /proxy upstream.
type CompletionConfig struct {
	URL     string
	Timeout time.Duration
}

// RenderConfig names the external media tools.
type RenderConfig struct {
	FFmpegPath       string
	HTMLRendererPath string
}

// FromEnv builds the configuration: defaults, then the TOML file named by
// EDGEGUARD_CONFIG, then environment variables. The result is validated;
// every failure is a ConfigurationError.
func FromEnv() (*Server, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Server, error) {
	cfg := &Server{
		Addr:        ":3000",
		Environment: "development",
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			StatsTTL:     24 * time.Hour,
		},
		Completion: CompletionConfig{
			URL:     "https://api.llm7.io/v1/chat/completions",
			Timeout: 60 * time.Second,
		},
		Render: RenderConfig{
			FFmpegPath:       "ffmpeg",
			HTMLRendererPath: "wkhtmltoimage",
		},
		Protection: protection.DefaultConfig(),
	}

	if path := getenv("EDGEGUARD_CONFIG"); path != "" {
		if err := LoadFile(path, cfg.Protection); err != nil {
			return nil, err
		}
	}

	e := envReader{getenv: getenv}
	e.str("EDGEGUARD_ADDR", &cfg.Addr)
	e.str("ENVIRONMENT", &cfg.Environment)
	e.str("ADMIN_TOKEN", &cfg.AdminToken)
	e.str("STATS_REDIS_URL", &cfg.Redis.URL)
	e.str("COMPLETION_API_URL", &cfg.Completion.URL)
	e.str("FFMPEG_PATH", &cfg.Render.FFmpegPath)
	e.str("HTML_RENDERER_PATH", &cfg.Render.HTMLRendererPath)

	p := cfg.Protection
	e.list("API_KEY", &p.APIKeys)
	e.list("API_KEYS", &p.APIKeys)
	e.list("ALLOWLIST", &p.Allowlist)
	e.list("EXCLUDE_PATH_PREFIXES", &p.ExcludePathPrefixes)
	e.list("EXCLUDE_PATH_PATTERNS", &p.ExcludePathPatterns)
	e.list("TRUSTED_PROXIES", &p.TrustedProxies)
	e.integer("RATE_LIMIT_POINTS", &p.RateLimit.Points)
	e.duration("RATE_LIMIT_WINDOW", &p.RateLimit.Window)
	e.integer("RATE_LIMIT_ESCALATION_MULTIPLIER", &p.RateLimit.EscalationMultiplier)
	e.duration("RATE_LIMIT_ESCALATION_BLOCK", &p.RateLimit.EscalationBlock)
	e.integer("MAX_FAILED_ATTEMPTS", &p.AuthLockout.MaxFailedAttempts)
	e.duration("FAILURE_WINDOW", &p.AuthLockout.FailureWindow)
	e.duration("FAILURE_BLOCK_DURATION", &p.AuthLockout.BlockDuration)
	e.duration("MANUAL_BLOCK_DURATION", &p.Block.ManualDuration)
	e.integer("STORE_MAX_KEYS", &p.Store.MaxKeys)
	e.duration("SWEEP_INTERVAL", &p.Store.SweepInterval)
	e.float("GLOBAL_RPS", &p.Global.RequestsPerSecond)
	e.integer("GLOBAL_BURST", &p.Global.Burst)
	if e.err != nil {
		return nil, e.err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *protection.Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return models.ConfigurationError(fmt.Sprintf("read config file %s: %v", path, err))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return models.ConfigurationError(fmt.Sprintf("unknown keys in %s: %v", path, undecoded))
	}
	return nil
}

// envReader applies set variables and keeps the first parse failure.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v := e.getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	v := e.getenv(key)
	if v == "" {
		return
	}
	*dst = platformstrings.SplitList(v)
}

func (e *envReader) integer(key string, dst *int) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = models.ConfigurationError(fmt.Sprintf("%s: %q is not an integer", key, v))
		return
	}
	*dst = n
}

func (e *envReader) float(key string, dst *float64) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.err = models.ConfigurationError(fmt.Sprintf("%s: %q is not a number", key, v))
		return
	}
	*dst = f
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Bare integers are seconds.
		secs, convErr := strconv.Atoi(v)
		if convErr != nil {
			e.err = models.ConfigurationError(fmt.Sprintf("%s: %q is not a duration", key, v))
			return
		}
		d = time.Duration(secs) * time.Second
	}
	*dst = d
}
