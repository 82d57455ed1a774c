package request

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a vapor request.
type Status string

const (
	StatusPending          Status = "pending"
	StatusResolving        Status = "resolving"
	StatusDownloading      Status = "downloading"
	StatusExtractingChorus Status = "extracting_chorus"
	StatusApplyingEffects  Status = "applying_effects"
	StatusDelivering       Status = "delivering"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusResolving,
	StatusDownloading,
	StatusExtractingChorus,
	StatusApplyingEffects,
	StatusDelivering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status ends the request lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Sink receives the outcome of a request: one audio payload on success or
// one text message on failure.
type Sink interface {
	SendAudio(chatID int64, title string, audio []byte) error
	SendText(chatID int64, text string) error
}

// Request is a single vapor command in flight. It is owned exclusively by
// the pipeline run processing it and discarded once a terminal status has
// been reported.
type Request struct {
	ID          string
	RawQuery    string
	Username    string
	UserID      int64
	ChatID      int64
	Sink        Sink
	SubmittedAt time.Time
	Status      Status
}

// Query returns the trimmed query text.
func (r *Request) Query() string {
	return strings.TrimSpace(r.RawQuery)
}
