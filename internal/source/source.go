package source

import (
	"context"
	"strings"
)

// Candidate is a playable video reference with metadata, not yet downloaded.
type Candidate struct {
	SourceURL       string
	Title           string
	DurationSeconds int
}

// Service resolves queries against the video platform and materializes raw
// audio files. Implementations wrap an external downloader binary.
type Service interface {
	// Search returns an ordered list of candidate URLs for a keyword query.
	Search(ctx context.Context, query string) ([]string, error)
	// Metadata fetches title and duration for a single video URL without
	// downloading it.
	Metadata(ctx context.Context, url string) (Candidate, error)
	// Download extracts the audio track of url to destPath as mp3.
	Download(ctx context.Context, url, destPath string) error
}

// videoURLPrefixes identifies queries that are direct video references
// rather than keyword searches.
var videoURLPrefixes = []string{
	"youtube.com",
	"https://www.youtube.com/",
	"http://www.youtube.com/",
	"https://youtube.com/",
	"http://youtube.com/",
	"https://youtu.be/",
	"http://youtu.be/",
	"youtu.be",
}

// IsVideoURL reports whether the query should be treated as a direct video
// reference instead of a keyword search.
func IsVideoURL(query string) bool {
	lowered := strings.ToLower(strings.TrimSpace(query))
	for _, prefix := range videoURLPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}
