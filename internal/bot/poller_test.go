package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vapord/internal/cache"
	"vapord/internal/dispatch"
	"vapord/internal/logging"
	"vapord/internal/request"
	"vapord/internal/testsupport"
)

type scriptedAPI struct {
	batches [][]Update
	offsets []int64
	texts   []string
	cancel  context.CancelFunc
}

func (s *scriptedAPI) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	s.offsets = append(s.offsets, offset)
	if len(s.batches) == 0 {
		if s.cancel != nil {
			s.cancel()
		}
		return nil, ctx.Err()
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func (s *scriptedAPI) SendAudio(chatID int64, title string, audio []byte) error { return nil }

func (s *scriptedAPI) SendText(chatID int64, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

type scriptedSubmitter struct {
	err      error
	requests []*request.Request
}

func (s *scriptedSubmitter) Submit(req *request.Request) error {
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, req)
	return nil
}

func commandUpdate(id int64, text string) Update {
	return Update{
		UpdateID: id,
		Message: &Message{
			MessageID: id,
			From:      &User{ID: 7, Username: "listener"},
			Chat:      Chat{ID: 42},
			Text:      text,
		},
	}
}

func newTestPoller(t *testing.T, api *scriptedAPI, submitter Submitter, admins ...int64) (*Poller, *cache.ArtifactCache) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAdmins(admins...))
	artifacts := cache.New(cfg.Paths.CacheDir, cfg.Cache.QuotaBytes, logging.NewNop())
	poller := NewPoller(cfg, api, submitter, dispatch.NewAuthorizer(cfg.Telegram.AdminIDs), artifacts, logging.NewNop())
	return poller, artifacts
}

func runPoller(t *testing.T, poller *Poller, api *scriptedAPI) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	api.cancel = cancel
	if err := poller.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPollerAdvancesOffset(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(10, "/help"), commandUpdate(11, "/help")},
	}}
	poller, _ := newTestPoller(t, api, &scriptedSubmitter{})
	runPoller(t, poller, api)

	if len(api.offsets) != 2 || api.offsets[0] != 0 || api.offsets[1] != 12 {
		t.Fatalf("offsets = %v", api.offsets)
	}
}

func TestHelpAndStartReplyWithUsage(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/help"), commandUpdate(2, "/start")},
	}}
	poller, _ := newTestPoller(t, api, &scriptedSubmitter{})
	runPoller(t, poller, api)

	if len(api.texts) != 2 {
		t.Fatalf("texts = %v", api.texts)
	}
	for _, text := range api.texts {
		if text != welcomeMessage() {
			t.Fatalf("reply = %q", text)
		}
	}
}

func TestVaporSubmitsAndAcknowledges(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/vapor synthwave dreams")},
	}}
	submitter := &scriptedSubmitter{}
	poller, _ := newTestPoller(t, api, submitter)
	runPoller(t, poller, api)

	if len(submitter.requests) != 1 {
		t.Fatalf("requests = %+v", submitter.requests)
	}
	req := submitter.requests[0]
	if req.RawQuery != "synthwave dreams" || req.Username != "listener" || req.ChatID != 42 {
		t.Fatalf("request = %+v", req)
	}
	if req.Sink == nil {
		t.Fatal("request has no delivery sink")
	}
	if len(api.texts) != 1 || api.texts[0] != workingMessage() {
		t.Fatalf("texts = %v", api.texts)
	}
}

func TestVaporShortQueryRepliesWithError(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/vapor hi")},
	}}
	submitter := &scriptedSubmitter{
		err: request.Wrap(request.ErrEmptyOrShortQuery, "admission", "validate query", "hi", nil),
	}
	poller, _ := newTestPoller(t, api, submitter)
	runPoller(t, poller, api)

	if len(api.texts) != 1 {
		t.Fatalf("texts = %v", api.texts)
	}
	if !strings.Contains(api.texts[0], "bigger query") {
		t.Fatalf("reply = %q", api.texts[0])
	}
}

func TestVaporQueueFullRepliesBusy(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/vapor synthwave dreams")},
	}}
	poller, _ := newTestPoller(t, api, &scriptedSubmitter{err: dispatch.ErrQueueFull})
	runPoller(t, poller, api)

	if len(api.texts) != 1 || api.texts[0] != busyMessage() {
		t.Fatalf("texts = %v", api.texts)
	}
}

func TestUnknownCommandReplies(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/transcend")},
	}}
	poller, _ := newTestPoller(t, api, &scriptedSubmitter{})
	runPoller(t, poller, api)

	if len(api.texts) != 1 || api.texts[0] != unknownCommandMessage() {
		t.Fatalf("texts = %v", api.texts)
	}
}

func TestPlainTextIsIgnored(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "just chatting")},
	}}
	submitter := &scriptedSubmitter{}
	poller, _ := newTestPoller(t, api, submitter)
	runPoller(t, poller, api)

	if len(api.texts) != 0 || len(submitter.requests) != 0 {
		t.Fatalf("texts = %v, requests = %+v", api.texts, submitter.requests)
	}
}

func TestPurgeRequiresAuthorization(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/purge")},
	}}
	poller, artifacts := newTestPoller(t, api, &scriptedSubmitter{})
	testsupport.WriteAudioFile(t, filepath.Join(artifacts.Dir(), "Track_vapor.wav"), 16)
	runPoller(t, poller, api)

	if len(api.texts) != 0 {
		t.Fatalf("unauthorized purge replied: %v", api.texts)
	}
	if _, err := os.Stat(filepath.Join(artifacts.Dir(), "Track_vapor.wav")); err != nil {
		t.Fatalf("artifact removed by unauthorized purge: %v", err)
	}
}

func TestPurgeClearsCacheForAdmin(t *testing.T) {
	api := &scriptedAPI{batches: [][]Update{
		{commandUpdate(1, "/purge")},
	}}
	poller, artifacts := newTestPoller(t, api, &scriptedSubmitter{}, 7)
	testsupport.WriteAudioFile(t, filepath.Join(artifacts.Dir(), "Track_vapor.wav"), 16)
	testsupport.WriteAudioFile(t, filepath.Join(artifacts.Dir(), "Another_vapor.wav"), 16)
	runPoller(t, poller, api)

	if len(api.texts) != 1 || !strings.Contains(api.texts[0], "2") {
		t.Fatalf("texts = %v", api.texts)
	}
	if _, err := os.Stat(filepath.Join(artifacts.Dir(), "Track_vapor.wav")); !os.IsNotExist(err) {
		t.Fatalf("artifact survived purge: %v", err)
	}
}
