package chorus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Detector finds the chorus of a song. Detection is heuristic: a failure at
// one target duration does not imply failure at a smaller one.
type Detector interface {
	// Detect analyzes audioPath and writes a chorus excerpt of roughly
	// targetSeconds to outPath. A non-nil error means no chorus was produced.
	Detect(ctx context.Context, audioPath, outPath string, targetSeconds int) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the finder client.
type Option func(*FinderClient)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *FinderClient) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// FinderClient wraps the external chorus-finder binary.
type FinderClient struct {
	binary string
	exec   Executor
}

// NewFinder constructs a chorus finder client.
func NewFinder(binary string, opts ...Option) (*FinderClient, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("chorus finder binary required")
	}
	client := &FinderClient{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Detect runs the finder. A non-zero exit means the heuristic found nothing.
func (c *FinderClient) Detect(ctx context.Context, audioPath, outPath string, targetSeconds int) error {
	args := []string{
		"--input", audioPath,
		"--output", outPath,
		"--duration", strconv.Itoa(targetSeconds),
	}
	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("chorus detect at %ds: %w", targetSeconds, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var stderrTail string
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			stderrTail = scanner.Text()
		}
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if stderrTail != "" {
			return fmt.Errorf("%w: %s", err, stderrTail)
		}
		return err
	}
	return nil
}
