package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/singleflight"

	"vapord/internal/fileutil"
	"vapord/internal/logging"
)

const artifactSuffix = "_vapor.wav"

// audioExtensions are the artifact extensions a purge deletes. Matches every
// file the pipeline writes into the directory.
var audioExtensions = map[string]struct{}{
	".mp3": {},
	".wav": {},
}

// Entry describes a finished artifact stored in the cache.
type Entry struct {
	Key       string
	FilePath  string
	SizeBytes int64
	CreatedAt time.Time
}

// ArtifactCache maps sanitized title keys to finished vaporwave artifacts in
// a flat directory. The filename is the index: <key>_vapor.wav. It also owns
// the coarse quota policy for the whole working directory.
type ArtifactCache struct {
	dir    string
	quota  int64
	logger *slog.Logger
	group  singleflight.Group
}

// New constructs a cache rooted at dir with the given quota in bytes.
func New(dir string, quotaBytes int64, logger *slog.Logger) *ArtifactCache {
	return &ArtifactCache{
		dir:    dir,
		quota:  quotaBytes,
		logger: logging.NewComponentLogger(logger, "cache"),
	}
}

// Dir returns the cache root directory.
func (c *ArtifactCache) Dir() string {
	return c.dir
}

// Key derives the cache key from a video title: non-alphanumeric runes are
// stripped, the first 15 characters are kept, and non-ASCII characters are
// dropped. Distinct titles sharing a sanitized prefix collide; that matches
// the artifact naming scheme on disk.
func Key(title string) string {
	var kept []rune
	for _, r := range title {
		if isAlnum(r) {
			kept = append(kept, r)
			if len(kept) == 15 {
				break
			}
		}
	}
	var b strings.Builder
	for _, r := range kept {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isAlnum mirrors the title sanitizer: any letter or digit counts toward the
// 15-character cap, even when a later pass drops it for being non-ASCII.
func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FilePath returns the artifact path a key maps to, whether or not it exists.
func (c *ArtifactCache) FilePath(key string) string {
	return filepath.Join(c.dir, key+artifactSuffix)
}

// Lookup reports whether a finished artifact exists for key.
func (c *ArtifactCache) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	path := c.FilePath(key)
	if fileutil.FileExists(path) {
		return path, true
	}
	return "", false
}

// Store moves a finished artifact into the cache namespace and returns its entry.
func (c *ArtifactCache) Store(key, sourceFile string) (Entry, error) {
	if key == "" {
		return Entry{}, fmt.Errorf("store artifact: empty key")
	}
	dest := c.FilePath(key)
	if err := fileutil.MoveFile(sourceFile, dest); err != nil {
		return Entry{}, fmt.Errorf("store artifact %q: %w", key, err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return Entry{}, fmt.Errorf("stat stored artifact %q: %w", key, err)
	}
	return Entry{
		Key:       key,
		FilePath:  dest,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Serialize runs fn under a per-key lock so concurrent requests resolving to
// the same key perform at most one computation; duplicates share the result.
func (c *ArtifactCache) Serialize(key string, fn func() (string, error)) (string, error) {
	if key == "" {
		return fn()
	}
	result, err, _ := c.group.Do(key, func() (any, error) {
		return fn()
	})
	path, _ := result.(string)
	return path, err
}

// EnforceQuota computes the aggregate size of every regular file in the cache
// directory and, when it exceeds the quota, deletes every audio artifact,
// valid cache entries included. Eviction is clear-all, not LRU.
func (c *ArtifactCache) EnforceQuota() error {
	total, audioFiles, err := c.scan()
	if err != nil {
		return err
	}
	if total <= c.quota {
		return nil
	}

	c.logger.Info("cache above quota, purging all artifacts",
		logging.Int64("total_bytes", total),
		logging.Int64("quota_bytes", c.quota),
		logging.Int("artifacts", len(audioFiles)),
	)
	return c.remove(audioFiles)
}

// Purge unconditionally deletes every audio artifact in the cache directory
// and returns how many files were removed.
func (c *ArtifactCache) Purge() (int, error) {
	_, audioFiles, err := c.scan()
	if err != nil {
		return 0, err
	}
	if err := c.remove(audioFiles); err != nil {
		return 0, err
	}
	return len(audioFiles), nil
}

// Usage returns the aggregate size of the cache directory and the count of
// audio artifacts in it.
func (c *ArtifactCache) Usage() (int64, int, error) {
	total, audioFiles, err := c.scan()
	return total, len(audioFiles), err
}

// scan walks the cache directory once, summing the size of every regular file
// and collecting the audio artifacts. The quota is judged against the whole
// directory; only audio is ever deleted.
func (c *ArtifactCache) scan() (int64, []string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, nil, fmt.Errorf("read cache directory: %w", err)
	}

	var total int64
	var audioFiles []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := audioExtensions[ext]; ok {
			audioFiles = append(audioFiles, filepath.Join(c.dir, entry.Name()))
		}
	}
	return total, audioFiles, nil
}

func (c *ArtifactCache) remove(paths []string) error {
	var firstErr error
	for _, path := range paths {
		if err := fileutil.RemoveIfExists(path); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("purge %s: %w", filepath.Base(path), err)
		}
	}
	return firstErr
}
