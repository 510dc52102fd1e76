// Package render turns request payloads into media by shelling out to
// external tools: ffmpeg for video, an HTML screenshot command for images.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a video request leaves a dimension unset.
const (
	DefaultWidth    = 1280
	DefaultHeight   = 720
	DefaultDuration = 5

	maxImageBytes = 10 << 20
)

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec and reports stderr on failure.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// VideoOptions shapes the generated clip. Zero fields take the defaults.
type VideoOptions struct {
	Width           int
	Height          int
	DurationSeconds int
}

func (o VideoOptions) withDefaults() VideoOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.DurationSeconds <= 0 {
		o.DurationSeconds = DefaultDuration
	}
	return o
}

type Option func(*Renderer)

func WithRunner(r Runner) Option {
	return func(rd *Renderer) {
		if r != nil {
			rd.runner = r
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(rd *Renderer) {
		if c != nil {
			rd.http = c
		}
	}
}

// WithMaxImageBytes caps the size of a fetched source image.
func WithMaxImageBytes(n int64) Option {
	return func(rd *Renderer) {
		if n > 0 {
			rd.maxImage = n
		}
	}
}

// WithTempDir sets where intermediate files are written.
func WithTempDir(dir string) Option {
	return func(rd *Renderer) {
		rd.tempDir = dir
	}
}

type Renderer struct {
	ffmpegPath string
	htmlPath   string
	runner     Runner
	http       *http.Client
	tempDir    string
	maxImage   int64
}

func New(ffmpegPath, htmlRendererPath string, opts ...Option) *Renderer {
	r := &Renderer{
		ffmpegPath: ffmpegPath,
		htmlPath:   htmlRendererPath,
		runner:     ExecRunner{},
		http:       &http.Client{Timeout: 30 * time.Second},
		tempDir:    os.TempDir(),
		maxImage:   maxImageBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchImage downloads the source image for a video.
func (r *Renderer) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > r.maxImage {
		return nil, fmt.Errorf("fetch image: exceeds %d bytes", r.maxImage)
	}
	return body, nil
}

// Video loops a still image into an H.264 MP4.
func (r *Renderer) Video(ctx context.Context, image []byte, opts VideoOptions) ([]byte, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()
	input := filepath.Join(r.tempDir, "input-"+id+".png")
	output := filepath.Join(r.tempDir, "output-"+id+".mp4")
	defer os.Remove(input)
	defer os.Remove(output)

	if err := os.WriteFile(input, image, 0o600); err != nil {
		return nil, fmt.Errorf("write video input: %w", err)
	}
	err := r.runner.Run(ctx, r.ffmpegPath,
		"-y",
		"-loop", "1",
		"-i", input,
		"-t", strconv.Itoa(opts.DurationSeconds),
		"-vf", fmt.Sprintf("scale=%d:%d", opts.Width, opts.Height),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-f", "mp4",
		output,
	)
	if err != nil {
		return nil, fmt.Errorf("render video: %w", err)
	}
	return os.ReadFile(output)
}

// Image screenshots the element matched by selector. The renderer command
// is invoked as: <cmd> <input.html> <output.png> <selector>.
func (r *Renderer) Image(ctx context.Context, html, selector string) ([]byte, error) {
	id := uuid.NewString()
	input := filepath.Join(r.tempDir, "page-"+id+".html")
	output := filepath.Join(r.tempDir, "shot-"+id+".png")
	defer os.Remove(input)
	defer os.Remove(output)

	if err := os.WriteFile(input, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("write html input: %w", err)
	}
	if err := r.runner.Run(ctx, r.htmlPath, input, output, selector); err != nil {
		return nil, fmt.Errorf("render image: %w", err)
	}
	return os.ReadFile(output)
}
