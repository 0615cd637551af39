// Package fetch wraps the yt-dlp command line downloader.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Request describes one video download.
type Request struct {
	URL            string
	OutputTemplate string
	Format         string
	Retries        int
	CookieFile     string
}

// Result reports a finished download.
type Result struct {
	// Filename is the path the downloader wrote, as reported by its
	// metadata output.
	Filename string
	// Info is the raw metadata document for the video.
	Info json.RawMessage
}

// DownloadError carries the downloader's own error text so callers can
// classify the failure.
type DownloadError struct {
	Message string
}

func (e *DownloadError) Error() string {
	return "download failed: " + e.Message
}

// Fetcher downloads a single video.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Option configures the CLI fetcher.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI invokes yt-dlp per download.
type CLI struct {
	binary string
}

var _ Fetcher = (*CLI)(nil)

// NewCLI constructs a CLI fetcher using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Fetch downloads one video and returns its metadata. Downloader failures
// are returned as DownloadError with the tool's error text.
func (c *CLI) Fetch(ctx context.Context, req Request) (*Result, error) {
	if req.URL == "" {
		return nil, errors.New("url required")
	}

	args := []string{"--no-progress", "--print-json"}
	if req.OutputTemplate != "" {
		args = append(args, "--output", req.OutputTemplate)
	}
	if req.Format != "" {
		args = append(args, "--format", req.Format)
	}
	if req.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(req.Retries))
	}
	if req.CookieFile != "" {
		args = append(args, "--cookies", req.CookieFile)
	}
	args = append(args, req.URL)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = err.Error()
		}
		return nil, &DownloadError{Message: message}
	}

	info := lastJSONLine(stdout.Bytes())
	if info == nil {
		return nil, fmt.Errorf("no metadata in downloader output")
	}

	var meta struct {
		Filename string `json:"_filename"`
	}
	if err := json.Unmarshal(info, &meta); err != nil {
		return nil, fmt.Errorf("decode downloader metadata: %w", err)
	}
	return &Result{Filename: meta.Filename, Info: info}, nil
}

// lastJSONLine picks the final JSON object from the tool's stdout, which
// may carry download progress noise on earlier lines.
func lastJSONLine(out []byte) json.RawMessage {
	lines := bytes.Split(out, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		if json.Valid(line) {
			return json.RawMessage(line)
		}
	}
	return nil
}
