package chorus

import (
	"context"
	"log/slog"

	"vapord/internal/logging"
	"vapord/internal/request"
)

// detectTargets are the chorus durations tried in order before falling back
// to a verbatim clip. The explicit list keeps the retry loop finite.
var detectTargets = []int{15, 10, 5}

// Resolver produces a representative excerpt from raw audio: chorus detection
// at decreasing targets, then a guaranteed clip of the opening seconds.
type Resolver struct {
	detector Detector
	clipper  Clipper
	logger   *slog.Logger
}

// NewResolver constructs a resolver over a detector and a clip fallback.
func NewResolver(detector Detector, clipper Clipper, logger *slog.Logger) *Resolver {
	return &Resolver{
		detector: detector,
		clipper:  clipper,
		logger:   logging.NewComponentLogger(logger, "chorus"),
	}
}

// ClipLength returns the fallback excerpt length for a validated source
// duration: the largest multiple of 5 no greater than min(15, duration),
// never below 5.
func ClipLength(durationSeconds int) int {
	limit := durationSeconds
	if limit > 15 {
		limit = 15
	}
	length := (limit / 5) * 5
	if length < 5 {
		length = 5
	}
	return length
}

// Resolve writes an excerpt of rawPath to excerptPath. Detection failures are
// expected for tracks without a clear refrain; only an unreadable source
// makes the fallback clip fail.
func (r *Resolver) Resolve(ctx context.Context, rawPath, excerptPath string, durationSeconds int) error {
	logger := logging.WithContext(ctx, r.logger)

	for _, target := range detectTargets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.detector.Detect(ctx, rawPath, excerptPath, target); err != nil {
			logger.Debug("chorus detection missed", logging.Int("target_seconds", target), logging.Error(err))
			continue
		}
		logger.Info("chorus detected", logging.Int("target_seconds", target))
		return nil
	}

	clipLen := ClipLength(durationSeconds)
	logger.Info("chorus not found, clipping intro", logging.Int("clip_seconds", clipLen))
	if err := r.clipper.Clip(ctx, rawPath, excerptPath, clipLen); err != nil {
		return request.Wrap(request.ErrExcerptExtractionFailed, "chorus", "clip fallback", "", err)
	}
	return nil
}
