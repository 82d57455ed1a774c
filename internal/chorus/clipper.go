package chorus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Clipper extracts the opening seconds of a raw audio file verbatim.
type Clipper interface {
	Clip(ctx context.Context, audioPath, outPath string, seconds int) error
}

// FFmpegClipper clips with ffmpeg. It shares the Executor contract with the
// finder client so tests can fake both.
type FFmpegClipper struct {
	binary string
	exec   Executor
}

// ClipperOption configures the clipper.
type ClipperOption func(*FFmpegClipper)

// WithClipperExecutor injects a custom executor (primarily for tests).
func WithClipperExecutor(exec Executor) ClipperOption {
	return func(c *FFmpegClipper) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// NewClipper constructs an ffmpeg clipper.
func NewClipper(binary string, opts ...ClipperOption) (*FFmpegClipper, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	clipper := &FFmpegClipper{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(clipper)
	}
	return clipper, nil
}

// Clip writes the first seconds of audioPath to outPath as wav.
func (c *FFmpegClipper) Clip(ctx context.Context, audioPath, outPath string, seconds int) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-t", strconv.Itoa(seconds),
		"-acodec", "pcm_s16le",
		outPath,
	}
	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("clip first %ds: %w", seconds, err)
	}
	return nil
}
