package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"vapord/internal/cache"
	"vapord/internal/config"
	"vapord/internal/daemon"
	"vapord/internal/dispatch"
	"vapord/internal/journal"
	"vapord/internal/logging"
	"vapord/internal/request"
	"vapord/internal/testsupport"
)

type idlePoller struct{}

func (idlePoller) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, req *request.Request) error {
	req.Status = request.StatusCompleted
	return nil
}

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *journal.Store) {
	t.Helper()
	store := testsupport.MustOpenJournal(t, cfg)
	artifacts := cache.New(cfg.Paths.CacheDir, cfg.Cache.QuotaBytes, logging.NewNop())
	dispatcher := dispatch.New(cfg, noopRunner{}, store, logging.NewNop())

	d, err := daemon.New(cfg, store, dispatcher, idlePoller{}, artifacts, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second, _ := newDaemon(t, cfg)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second Start succeeded while first instance held the lock")
	}
}

func TestStopReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	first.Stop()

	second, _ := newDaemon(t, cfg)
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	second.Stop()
}

func TestStatusReportsCacheAndJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, store := newDaemon(t, cfg)
	testsupport.RecordOutcome(t, store, journal.Outcome{
		RequestID: "req-1",
		Username:  "listener",
		QueryText: "synthwave dreams",
		Status:    request.StatusCompleted,
	})
	testsupport.RecordOutcome(t, store, journal.Outcome{
		RequestID: "req-2",
		Username:  "listener",
		QueryText: "obscure track",
		Status:    request.StatusFailed,
		Reason:    "no candidate found",
	})
	testsupport.WriteAudioFile(t, filepath.Join(cfg.Paths.CacheDir, "Track_vapor.wav"), 64)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("status reports not running")
	}
	if status.CacheArtifacts != 1 || status.CacheBytes != 64 {
		t.Fatalf("cache usage = %d bytes in %d files", status.CacheBytes, status.CacheArtifacts)
	}
	if status.RequestsTotal != 2 || status.RequestsServed != 1 || status.RequestsFailed != 1 {
		t.Fatalf("status = %+v", status)
	}
}
