package fx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Vaporwave transform constants. The chain is deterministic: identical input
// bytes always produce identical output bytes.
const (
	speedFactor    = "0.63"
	reverberance   = "50"
	hfDamping      = "50"
	roomScale      = "100"
	stereoDepth    = "100"
	preDelayMillis = "20"
	wetGainDB      = "0"
)

// Engine applies the fixed vaporwave transform to an audio excerpt.
type Engine interface {
	Apply(ctx context.Context, inPath, outPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the sox engine.
type Option func(*SoxEngine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *SoxEngine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// SoxEngine shells out to sox for the speed and reverb chain.
type SoxEngine struct {
	binary string
	exec   Executor
}

// New constructs a sox engine.
func New(binary string, opts ...Option) (*SoxEngine, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("sox binary required")
	}
	engine := &SoxEngine{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Apply slows the excerpt to 0.63x speed (dropping pitch with it) and adds
// the fixed reverb. Wet-only stays off so the dry signal is retained.
func (e *SoxEngine) Apply(ctx context.Context, inPath, outPath string) error {
	args := []string{
		"-V0",
		"-v", "0.99",
		inPath,
		outPath,
		"speed", speedFactor,
		"reverb", reverberance, hfDamping, roomScale, stereoDepth, preDelayMillis, wetGainDB,
	}
	if err := e.exec.Run(ctx, e.binary, args); err != nil {
		return fmt.Errorf("sox transform: %w", err)
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
