package magick

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"imageset/internal/services"
)

var commandContext = exec.CommandContext

// Client defines the external resize behaviour: encoded bytes in, encoded
// bytes out.
type Client interface {
	Resize(ctx context.Context, data []byte, targetSize int) ([]byte, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ImageMagick convert command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "convert"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Resize pipes the image through convert, shrinking so the shorter side
// lands on targetSize. The `^>` geometry flags mean "fill the box, only
// ever shrink", so images already within the target pass through.
func (c *CLI) Resize(ctx context.Context, data []byte, targetSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("image bytes required")
	}
	if targetSize <= 0 {
		return data, nil
	}

	geometry := fmt.Sprintf("%dx%d^>", targetSize, targetSize)
	args := []string{"jpg:-", "-resize", geometry, "-interpolate", "Catrom", "jpg:-"}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, services.Wrap(services.ErrDecode, "magick", "convert", detail, err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrDecode, "magick", "convert", "empty output", nil)
	}
	return stdout.Bytes(), nil
}

var _ Client = (*CLI)(nil)
