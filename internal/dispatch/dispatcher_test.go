package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vapord/internal/dispatch"
	"vapord/internal/logging"
	"vapord/internal/request"
	"vapord/internal/testsupport"
)

type fakeRunner struct {
	mu      sync.Mutex
	runs    []string
	err     error
	status  request.Status
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, req *request.Request) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.runs = append(f.runs, req.ID)
	f.mu.Unlock()

	if f.err != nil {
		req.Status = request.StatusFailed
		return f.err
	}
	if f.status != "" {
		req.Status = f.status
	} else {
		req.Status = request.StatusCompleted
	}
	return nil
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

type recordingSink struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSink) SendAudio(chatID int64, title string, audio []byte) error { return nil }

func (s *recordingSink) SendText(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return nil
}

func newTestRequest(query string, sink request.Sink) *request.Request {
	return &request.Request{
		RawQuery:    query,
		Username:    "listener",
		UserID:      7,
		ChatID:      42,
		Sink:        sink,
		SubmittedAt: time.Now(),
		Status:      request.StatusPending,
	}
}

func TestSubmitRejectsShortQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	runner := &fakeRunner{}
	d := dispatch.New(cfg, runner, store, logging.NewNop())
	d.Start(context.Background())
	defer d.Stop()

	req := newTestRequest("hi", &recordingSink{})
	err := d.Submit(req)
	if !errors.Is(err, request.ErrEmptyOrShortQuery) {
		t.Fatalf("err = %v, want ErrEmptyOrShortQuery", err)
	}
	if runner.runCount() != 0 {
		t.Fatalf("runner invoked %d times for rejected request", runner.runCount())
	}

	outcomes, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != request.StatusFailed {
		t.Fatalf("outcomes = %+v", outcomes)
	}
}

func TestSubmitRejectsWhenNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := dispatch.New(cfg, &fakeRunner{}, nil, logging.NewNop())

	err := d.Submit(newTestRequest("synthwave dreams", &recordingSink{}))
	if !errors.Is(err, dispatch.ErrNotRunning) {
		t.Fatalf("err = %v, want ErrNotRunning", err)
	}
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1), testsupport.WithQueueDepth(1))
	runner := &fakeRunner{
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	d := dispatch.New(cfg, runner, nil, logging.NewNop())
	d.Start(context.Background())

	if err := d.Submit(newTestRequest("first request", &recordingSink{})); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	<-runner.started

	if err := d.Submit(newTestRequest("second request", &recordingSink{})); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	err := d.Submit(newTestRequest("third request", &recordingSink{}))
	if !errors.Is(err, dispatch.ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}

	close(runner.release)
	d.Stop()
}

func TestDispatcherProcessesAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	runner := &fakeRunner{}
	d := dispatch.New(cfg, runner, store, logging.NewNop())
	d.Start(context.Background())

	req := newTestRequest("synthwave dreams", &recordingSink{})
	if err := d.Submit(req); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	d.Stop()

	if req.ID == "" {
		t.Fatal("Submit did not assign a request ID")
	}
	if runner.runCount() != 1 {
		t.Fatalf("runner invoked %d times, want 1", runner.runCount())
	}

	outcomes, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	outcome := outcomes[0]
	if outcome.RequestID != req.ID || outcome.Status != request.StatusCompleted {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.ElapsedSeconds < 0 {
		t.Fatalf("elapsed = %f", outcome.ElapsedSeconds)
	}
}

func TestDispatcherSendsFailureNotice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	runner := &fakeRunner{err: request.Wrap(request.ErrNoCandidateFound, "resolve", "search", "q", nil)}
	d := dispatch.New(cfg, runner, store, logging.NewNop())
	d.Start(context.Background())

	sink := &recordingSink{}
	if err := d.Submit(newTestRequest("obscure track", sink)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	d.Stop()

	if len(sink.texts) != 1 || sink.texts[0] != request.UserMessage(request.ErrNoCandidateFound) {
		t.Fatalf("texts = %v", sink.texts)
	}

	outcomes, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Status != request.StatusFailed || outcomes[0].Reason == "" {
		t.Fatalf("outcomes = %+v", outcomes)
	}
}

func TestAuthorizer(t *testing.T) {
	tests := []struct {
		name   string
		admins []int64
		userID int64
		want   bool
	}{
		{"listed admin", []int64{7, 11}, 7, true},
		{"unlisted user", []int64{7, 11}, 99, false},
		{"empty allow-list", nil, 7, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			auth := dispatch.NewAuthorizer(tc.admins)
			if got := auth.Authorized(tc.userID); got != tc.want {
				t.Fatalf("Authorized(%d) = %v, want %v", tc.userID, got, tc.want)
			}
		})
	}
}
