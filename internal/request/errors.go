package request

import (
	"errors"
	"fmt"
	"strings"
)

// Stage failure markers. Every pipeline error wraps exactly one of these so
// callers can classify failures without string matching.
var (
	ErrEmptyOrShortQuery       = errors.New("query too short")
	ErrNoCandidateFound        = errors.New("no candidate found")
	ErrDurationOutOfRange      = errors.New("duration out of range")
	ErrDownloadFailed          = errors.New("download failed")
	ErrExcerptExtractionFailed = errors.New("excerpt extraction failed")
	ErrEffectApplicationFailed = errors.New("effect application failed")
	ErrDeliveryFailed          = errors.New("delivery failed")
	ErrQuotaEnforcement        = errors.New("quota enforcement failed")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrDownloadFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}

// UserMessage maps a pipeline error to the short human-readable reason sent
// back to the requester.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyOrShortQuery):
		return "I need a bigger query!"
	case errors.Is(err, ErrNoCandidateFound):
		return "Could not find a video that fits the maximum duration."
	case errors.Is(err, ErrDurationOutOfRange):
		return "That video is too long (or too short) for me."
	case errors.Is(err, ErrDownloadFailed):
		return "Could not download the audio for that video."
	case errors.Is(err, ErrExcerptExtractionFailed):
		return "Could not extract an excerpt from that song."
	case errors.Is(err, ErrEffectApplicationFailed):
		return "Could not apply the vaporwave effects."
	case errors.Is(err, ErrDeliveryFailed):
		return "Finished the audio but failed to send it. Try again."
	default:
		return "Something went wrong. Try again later."
	}
}
