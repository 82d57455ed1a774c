package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vapord/internal/cache"
	"vapord/internal/config"
	"vapord/internal/fileutil"
	"vapord/internal/fx"
	"vapord/internal/logging"
	"vapord/internal/request"
	"vapord/internal/source"
)

// ExcerptResolver produces a representative excerpt from raw audio.
type ExcerptResolver interface {
	Resolve(ctx context.Context, rawPath, excerptPath string, durationSeconds int) error
}

// Pipeline runs one request end to end: resolve, cache check, download,
// chorus resolution, effect application, delivery, cleanup. Stages execute
// strictly sequentially; any stage failure aborts the remainder of this
// request only.
type Pipeline struct {
	cfg       *config.Config
	src       source.Service
	resolver  ExcerptResolver
	engine    fx.Engine
	artifacts *cache.ArtifactCache
	logger    *slog.Logger
}

// New constructs a pipeline.
func New(cfg *config.Config, src source.Service, resolver ExcerptResolver, engine fx.Engine, artifacts *cache.ArtifactCache, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		src:       src,
		resolver:  resolver,
		engine:    engine,
		artifacts: artifacts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes req to a terminal status and returns the stage error, if
// any. Transient working files are removed before Run returns, whether or
// not they were fully written.
func (p *Pipeline) Run(ctx context.Context, req *request.Request) error {
	ctx = request.WithID(ctx, req.ID)
	logger := logging.WithContext(ctx, p.logger)

	req.Status = request.StatusResolving
	candidate, err := p.resolve(request.WithStage(ctx, "resolve"), req.Query())
	if err != nil {
		req.Status = request.StatusFailed
		return err
	}
	key := cache.Key(candidate.Title)
	logger.Info("resolved candidate",
		logging.String("title", candidate.Title),
		logging.Int("duration_seconds", candidate.DurationSeconds),
		logging.String("cache_key", key),
	)

	dir := p.artifacts.Dir()
	rawPath := filepath.Join(dir, req.ID+".mp3")
	excerptPath := filepath.Join(dir, req.ID+"_chorus.wav")
	processedPath := filepath.Join(dir, req.ID+"_vapor.wav")
	defer p.cleanup(logger, rawPath, excerptPath, processedPath)

	artifact, err := p.artifacts.Serialize(key, func() (string, error) {
		if path, found := p.artifacts.Lookup(key); found {
			logger.Info("cache hit", logging.String("cache_key", key))
			return path, nil
		}
		return p.compute(ctx, req, candidate, key, rawPath, excerptPath, processedPath)
	})
	if err != nil {
		req.Status = request.StatusFailed
		return err
	}

	req.Status = request.StatusDelivering
	payload, err := os.ReadFile(artifact)
	if err != nil {
		req.Status = request.StatusFailed
		return request.Wrap(request.ErrDeliveryFailed, "delivery", "read artifact", candidate.Title, err)
	}
	if err := req.Sink.SendAudio(req.ChatID, candidate.Title, payload); err != nil {
		// The artifact stays cached; only this delivery is lost.
		req.Status = request.StatusFailed
		return request.Wrap(request.ErrDeliveryFailed, "delivery", "send audio", candidate.Title, err)
	}

	req.Status = request.StatusCompleted
	p.enforceQuota(logger)
	return nil
}

// compute runs the download, chorus, and effect stages and stores the result
// under key. It executes under the per-key lock, so at most one request
// computes a given key at a time.
func (p *Pipeline) compute(ctx context.Context, req *request.Request, candidate source.Candidate, key, rawPath, excerptPath, processedPath string) (string, error) {
	req.Status = request.StatusDownloading
	callCtx, cancel := p.callContext(request.WithStage(ctx, "download"))
	err := p.src.Download(callCtx, candidate.SourceURL, rawPath)
	cancel()
	if err != nil {
		return "", request.Wrap(request.ErrDownloadFailed, "download", "fetch audio", candidate.Title, err)
	}
	if !fileutil.FileExists(rawPath) {
		return "", request.Wrap(request.ErrDownloadFailed, "download", "fetch audio", "no audio file produced", nil)
	}

	req.Status = request.StatusExtractingChorus
	callCtx, cancel = p.callContext(request.WithStage(ctx, "chorus"))
	err = p.resolver.Resolve(callCtx, rawPath, excerptPath, candidate.DurationSeconds)
	cancel()
	if err != nil {
		return "", err
	}

	req.Status = request.StatusApplyingEffects
	callCtx, cancel = p.callContext(request.WithStage(ctx, "effects"))
	err = p.engine.Apply(callCtx, excerptPath, processedPath)
	cancel()
	if err != nil {
		return "", request.Wrap(request.ErrEffectApplicationFailed, "effects", "apply chain", candidate.Title, err)
	}

	entry, err := p.artifacts.Store(key, processedPath)
	if err != nil {
		return "", request.Wrap(request.ErrEffectApplicationFailed, "effects", "store artifact", key, err)
	}
	return entry.FilePath, nil
}

func (p *Pipeline) resolve(ctx context.Context, query string) (source.Candidate, error) {
	if source.IsVideoURL(query) {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		candidate, err := p.src.Metadata(callCtx, query)
		if err != nil {
			return source.Candidate{}, request.Wrap(request.ErrNoCandidateFound, "resolve", "fetch metadata", query, err)
		}
		if !p.durationOK(candidate.DurationSeconds) {
			return source.Candidate{}, request.Wrap(request.ErrDurationOutOfRange, "resolve", "check duration",
				fmt.Sprintf("%ds outside [5, %d]", candidate.DurationSeconds, p.cfg.Pipeline.MaxDurationSeconds), nil)
		}
		return candidate, nil
	}

	callCtx, cancel := p.callContext(ctx)
	urls, err := p.src.Search(callCtx, query)
	cancel()
	if err != nil {
		return source.Candidate{}, request.Wrap(request.ErrNoCandidateFound, "resolve", "search", query, err)
	}

	logger := logging.WithContext(ctx, p.logger)
	for _, url := range urls {
		callCtx, cancel := p.callContext(ctx)
		candidate, err := p.src.Metadata(callCtx, url)
		cancel()
		if err != nil {
			logger.Debug("skipping candidate", logging.String("url", url), logging.Error(err))
			continue
		}
		if p.durationOK(candidate.DurationSeconds) {
			return candidate, nil
		}
	}
	return source.Candidate{}, request.Wrap(request.ErrNoCandidateFound, "resolve", "select candidate", "no candidate within duration limit", nil)
}

func (p *Pipeline) durationOK(seconds int) bool {
	return seconds >= 5 && seconds <= p.cfg.Pipeline.MaxDurationSeconds
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.cfg.Pipeline.CallTimeoutSeconds) * time.Second
	return context.WithTimeout(ctx, timeout)
}

// cleanup removes the transient working files. The cached artifact is never
// touched here; only quota enforcement removes it.
func (p *Pipeline) cleanup(logger *slog.Logger, paths ...string) {
	for _, path := range paths {
		if err := fileutil.RemoveIfExists(path); err != nil {
			logger.Warn("cleanup failed", logging.String("path", path), logging.Error(err))
		}
	}
}

func (p *Pipeline) enforceQuota(logger *slog.Logger) {
	if err := p.artifacts.EnforceQuota(); err != nil {
		// Never blocks delivery of an otherwise-successful result.
		wrapped := request.Wrap(request.ErrQuotaEnforcement, "cache", "enforce quota", "", err)
		logger.Warn("quota enforcement failed", logging.Error(wrapped))
	}
}
