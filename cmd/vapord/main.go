package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"vapord/internal/bot"
	"vapord/internal/cache"
	"vapord/internal/chorus"
	"vapord/internal/config"
	"vapord/internal/daemon"
	"vapord/internal/dispatch"
	"vapord/internal/fx"
	"vapord/internal/journal"
	"vapord/internal/logging"
	"vapord/internal/pipeline"
	"vapord/internal/source"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional .env next to the binary; real config wins over it.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateCredential(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := journal.Open(cfg)
	if err != nil {
		logger.Error("open journal", logging.Error(err))
		return
	}

	artifacts := cache.New(cfg.Paths.CacheDir, cfg.Cache.QuotaBytes, logger)
	src, err := source.New(cfg.Tools.YtDlp)
	if err != nil {
		logger.Error("init downloader", logging.Error(err))
		return
	}
	detector, err := chorus.NewFinder(cfg.Tools.ChorusFinder)
	if err != nil {
		logger.Error("init chorus finder", logging.Error(err))
		return
	}
	clipper, err := chorus.NewClipper(cfg.Tools.FFmpeg)
	if err != nil {
		logger.Error("init clipper", logging.Error(err))
		return
	}
	resolver := chorus.NewResolver(detector, clipper, logger)
	engine, err := fx.New(cfg.Tools.Sox)
	if err != nil {
		logger.Error("init effect engine", logging.Error(err))
		return
	}

	pipe := pipeline.New(cfg, src, resolver, engine, artifacts, logger)
	dispatcher := dispatch.New(cfg, pipe, store, logger)
	client := bot.NewClient(cfg, logger)
	authorizer := dispatch.NewAuthorizer(cfg.Telegram.AdminIDs)
	poller := bot.NewPoller(cfg, client, dispatcher, authorizer, artifacts, logger)

	d, err := daemon.New(cfg, store, dispatcher, poller, artifacts, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("vapord shutting down")
	d.Stop()
}
