package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const defaultSearchLimit = 10

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithSearchLimit caps the number of candidates a keyword search yields.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary      string
	searchLimit int
	exec        Executor
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:      binary,
		searchLimit: defaultSearchLimit,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search returns candidate URLs for a keyword query, in platform order.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	args := []string{
		fmt.Sprintf("ytsearch%d:%s", c.searchLimit, query),
		"--flat-playlist",
		"--no-warnings",
		"--print", "url",
	}
	var urls []string
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}
	return urls, nil
}

// Metadata fetches title and duration for a URL without downloading it.
func (c *Client) Metadata(ctx context.Context, url string) (Candidate, error) {
	args := []string{
		url,
		"--no-download",
		"--no-warnings",
		"--print", "title",
		"--print", "duration",
	}
	var lines []string
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		lines = append(lines, strings.TrimSpace(line))
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	if len(lines) < 2 {
		return Candidate{}, fmt.Errorf("yt-dlp metadata: expected title and duration, got %d lines", len(lines))
	}

	duration, err := parseDuration(lines[1])
	if err != nil {
		return Candidate{}, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	return Candidate{
		SourceURL:       url,
		Title:           lines[0],
		DurationSeconds: duration,
	}, nil
}

// Download extracts the audio track of url to destPath as mp3. destPath must
// end in .mp3; yt-dlp derives intermediate names from the same stem.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	stem := strings.TrimSuffix(destPath, ".mp3")
	args := []string{
		url,
		"--quiet",
		"--no-warnings",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--output", stem + ".%(ext)s",
	}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("yt-dlp download: %w", err)
	}
	return nil
}

func parseDuration(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "NA" {
		return 0, fmt.Errorf("missing duration")
	}
	// yt-dlp prints durations as integers for most extractors but floats
	// for some live-archive formats.
	if seconds, err := strconv.Atoi(value); err == nil {
		return seconds, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	return int(math.Round(f)), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var stderrTail string
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
	}()
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
