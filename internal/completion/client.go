// Package completion forwards chat completion requests to an upstream API.
package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	dErrors "edgeguard/pkg/domain-errors"
)

// DefaultURL is the upstream completion endpoint used when none is configured.
const DefaultURL = "https://api.llm7.io/v1/chat/completions"

const maxResponseBytes = 10 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpstreamError is a non-2xx reply from the completion API.
type UpstreamError struct {
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreakerSettings overrides the breaker trip threshold and open timeout.
func WithBreakerSettings(failures int, timeout time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if timeout > 0 {
			c.breakerTimeout = timeout
		}
	}
}

// Client posts request bodies to the completion API behind a circuit
// breaker. Transport failures and 5xx replies count against the breaker;
// 4xx replies are the caller's problem and do not.
type Client struct {
	url             string
	http            HTTPDoer
	logger          *slog.Logger
	breaker         *gobreaker.CircuitBreaker
	breakerFailures int
	breakerTimeout  time.Duration
}

func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:             url,
		http:            &http.Client{Timeout: 60 * time.Second},
		logger:          slog.Default(),
		breakerFailures: 5,
		breakerTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "completion",
		Timeout: c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= c.breakerFailures
		},
		IsSuccessful: func(err error) bool {
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				return upstream.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// Forward posts body to the upstream. authorization, when non-empty, is
// passed through verbatim. A non-2xx reply is returned as *UpstreamError.
func (c *Client) Forward(ctx context.Context, body []byte, authorization string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, body, authorization)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "completion upstream unavailable")
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) post(ctx context.Context, body []byte, authorization string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute completion request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: payload}
	}
	return payload, nil
}
