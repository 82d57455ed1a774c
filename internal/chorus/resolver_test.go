package chorus_test

import (
	"context"
	"errors"
	"testing"

	"vapord/internal/chorus"
	"vapord/internal/logging"
	"vapord/internal/request"
)

type fakeDetector struct {
	succeedAt int // target at which detection succeeds; 0 means never
	targets   []int
}

func (f *fakeDetector) Detect(_ context.Context, _, _ string, targetSeconds int) error {
	f.targets = append(f.targets, targetSeconds)
	if f.succeedAt != 0 && targetSeconds == f.succeedAt {
		return nil
	}
	return errors.New("no chorus")
}

type fakeClipper struct {
	seconds int
	calls   int
	err     error
}

func (f *fakeClipper) Clip(_ context.Context, _, _ string, seconds int) error {
	f.calls++
	f.seconds = seconds
	return f.err
}

func TestClipLength(t *testing.T) {
	tests := []struct {
		duration int
		want     int
	}{
		{5, 5},
		{7, 5},
		{9, 5},
		{10, 10},
		{14, 10},
		{15, 15},
		{200, 15},
		{420, 15},
	}
	for _, tc := range tests {
		if got := chorus.ClipLength(tc.duration); got != tc.want {
			t.Errorf("ClipLength(%d) = %d, want %d", tc.duration, got, tc.want)
		}
	}
}

func TestResolveStopsAtFirstDetection(t *testing.T) {
	detector := &fakeDetector{succeedAt: 15}
	clipper := &fakeClipper{}
	resolver := chorus.NewResolver(detector, clipper, logging.NewNop())

	if err := resolver.Resolve(context.Background(), "raw.mp3", "chorus.wav", 200); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(detector.targets) != 1 || detector.targets[0] != 15 {
		t.Fatalf("unexpected detect targets: %v", detector.targets)
	}
	if clipper.calls != 0 {
		t.Fatal("clipper should not run when detection succeeds")
	}
}

func TestResolveDecrementsTargets(t *testing.T) {
	detector := &fakeDetector{succeedAt: 5}
	resolver := chorus.NewResolver(detector, &fakeClipper{}, logging.NewNop())

	if err := resolver.Resolve(context.Background(), "raw.mp3", "chorus.wav", 200); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []int{15, 10, 5}
	if len(detector.targets) != len(want) {
		t.Fatalf("unexpected targets: %v", detector.targets)
	}
	for i, target := range want {
		if detector.targets[i] != target {
			t.Fatalf("target %d = %d, want %d", i, detector.targets[i], target)
		}
	}
}

func TestResolveFallsBackToClip(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		wantClip int
	}{
		{"long track clips 15", 200, 15},
		{"12 second track clips 10", 12, 10},
		{"minimum duration clips 5", 5, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			detector := &fakeDetector{}
			clipper := &fakeClipper{}
			resolver := chorus.NewResolver(detector, clipper, logging.NewNop())

			if err := resolver.Resolve(context.Background(), "raw.mp3", "chorus.wav", tc.duration); err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if clipper.calls != 1 {
				t.Fatalf("expected one clip call, got %d", clipper.calls)
			}
			if clipper.seconds != tc.wantClip {
				t.Fatalf("clip length = %d, want %d", clipper.seconds, tc.wantClip)
			}
		})
	}
}

func TestResolveReportsUnreadableSource(t *testing.T) {
	detector := &fakeDetector{}
	clipper := &fakeClipper{err: errors.New("invalid data found when processing input")}
	resolver := chorus.NewResolver(detector, clipper, logging.NewNop())

	err := resolver.Resolve(context.Background(), "raw.mp3", "chorus.wav", 60)
	if !errors.Is(err, request.ErrExcerptExtractionFailed) {
		t.Fatalf("expected ErrExcerptExtractionFailed, got %v", err)
	}
}
