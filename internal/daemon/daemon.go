// Package daemon coordinates the background services and enforces
// single-instance execution through a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vapord/internal/cache"
	"vapord/internal/config"
	"vapord/internal/dispatch"
	"vapord/internal/journal"
	"vapord/internal/logging"
)

// Poller is the update loop feeding the dispatcher.
type Poller interface {
	Run(ctx context.Context) error
}

// Daemon ties the Telegram poller, the dispatcher, and the journal together
// and owns their lifecycle.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *journal.Store
	dispatcher *dispatch.Dispatcher
	poller     Poller
	artifacts  *cache.ArtifactCache

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	LockFilePath   string
	JournalDBPath  string
	CacheDir       string
	CacheBytes     int64
	CacheArtifacts int
	RequestsTotal  int
	RequestsServed int
	RequestsFailed int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *journal.Store, dispatcher *dispatch.Dispatcher, poller Poller, artifacts *cache.ArtifactCache, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || dispatcher == nil || poller == nil || artifacts == nil || logger == nil {
		return nil, errors.New("daemon requires config, journal, dispatcher, poller, cache, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "vapord.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		dispatcher: dispatcher,
		poller:     poller,
		artifacts:  artifacts,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, launches the worker pool, and begins
// polling for updates.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vapord instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.dispatcher.Start(runCtx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.poller.Run(runCtx); err != nil {
			d.logger.Error("poller exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("vapord started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts polling, drains in-flight requests, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.dispatcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("vapord stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status with cache and journal totals.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		LockFilePath:  d.lockPath,
		JournalDBPath: filepath.Join(d.cfg.Paths.LogDir, "journal.db"),
		CacheDir:      d.artifacts.Dir(),
	}
	if bytes, count, err := d.artifacts.Usage(); err == nil {
		status.CacheBytes = bytes
		status.CacheArtifacts = count
	}
	if summary, err := d.store.Summarize(ctx); err == nil {
		status.RequestsTotal = summary.Total
		status.RequestsServed = summary.Completed
		status.RequestsFailed = summary.Failed
	}
	return status
}
