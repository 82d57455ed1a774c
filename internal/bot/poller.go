// Package bot implements the Telegram front-end: a long-poll update loop,
// command routing, and the delivery sink used by the pipeline.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vapord/internal/cache"
	"vapord/internal/config"
	"vapord/internal/dispatch"
	"vapord/internal/logging"
	"vapord/internal/request"
)

// API is the Telegram surface the poller depends on. Client implements it.
type API interface {
	request.Sink
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error)
}

// Submitter admits requests into the worker pool.
type Submitter interface {
	Submit(req *request.Request) error
}

// Poller consumes the Telegram update feed and routes commands. Transient
// feed errors back off exponentially; a delivered batch resets the backoff.
type Poller struct {
	cfg        *config.Config
	api        API
	submitter  Submitter
	authorizer *dispatch.Authorizer
	artifacts  *cache.ArtifactCache
	logger     *slog.Logger
}

// NewPoller constructs a poller.
func NewPoller(cfg *config.Config, api API, submitter Submitter, authorizer *dispatch.Authorizer, artifacts *cache.ArtifactCache, logger *slog.Logger) *Poller {
	return &Poller{
		cfg:        cfg,
		api:        api,
		submitter:  submitter,
		authorizer: authorizer,
		artifacts:  artifacts,
		logger:     logging.NewComponentLogger(logger, "bot"),
	}
}

// Run polls for updates until ctx is canceled.
func (p *Poller) Run(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = time.Second
	retry.MaxInterval = time.Minute
	retry.MaxElapsedTime = 0

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		updates, err := p.api.GetUpdates(ctx, offset, p.cfg.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := retry.NextBackOff()
			p.logger.Warn("update poll failed",
				logging.Error(err),
				logging.Duration("retry_in", wait),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.handle(update)
		}
	}
}

func (p *Poller) handle(update Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	command, args := parseCommand(text)
	switch command {
	case "/help", "/start":
		p.reply(msg.Chat.ID, welcomeMessage())
	case "/vapor":
		p.handleVapor(msg, args)
	case "/purge":
		p.handlePurge(msg)
	default:
		p.reply(msg.Chat.ID, unknownCommandMessage())
	}
}

func (p *Poller) handleVapor(msg *Message, query string) {
	req := &request.Request{
		RawQuery:    query,
		Username:    msg.From.Username,
		UserID:      msg.From.ID,
		ChatID:      msg.Chat.ID,
		Sink:        p.api,
		SubmittedAt: time.Now(),
		Status:      request.StatusPending,
	}

	err := p.submitter.Submit(req)
	switch {
	case err == nil:
		p.logger.Info("request submitted",
			logging.String(logging.FieldRequestID, req.ID),
			logging.String(logging.FieldUsername, req.Username),
			logging.String(logging.FieldQuery, req.Query()),
		)
		p.reply(msg.Chat.ID, workingMessage())
	case errors.Is(err, request.ErrEmptyOrShortQuery):
		p.reply(msg.Chat.ID, errorMessage(request.UserMessage(err)))
	case errors.Is(err, dispatch.ErrQueueFull):
		p.reply(msg.Chat.ID, busyMessage())
	default:
		p.logger.Error("request submission failed", logging.Error(err))
		p.reply(msg.Chat.ID, errorMessage(request.UserMessage(err)))
	}
}

func (p *Poller) handlePurge(msg *Message) {
	if !p.authorizer.Authorized(msg.From.ID) {
		p.logger.Warn("unauthorized purge attempt",
			logging.String(logging.FieldUsername, msg.From.Username),
			logging.Int64("user_id", msg.From.ID),
		)
		return
	}
	removed, err := p.artifacts.Purge()
	if err != nil {
		p.logger.Error("cache purge failed", logging.Error(err))
		p.reply(msg.Chat.ID, errorMessage("Could not purge the cache."))
		return
	}
	p.logger.Info("cache purged",
		logging.String(logging.FieldUsername, msg.From.Username),
		logging.Int("removed", removed),
	)
	p.reply(msg.Chat.ID, purgedMessage(removed))
}

func (p *Poller) reply(chatID int64, text string) {
	if err := p.api.SendText(chatID, text); err != nil {
		p.logger.Warn("reply undeliverable", logging.Error(err))
	}
}

// parseCommand splits a command message into the command word and its
// argument string, dropping any @botname suffix on the command.
func parseCommand(text string) (string, string) {
	command := text
	args := ""
	if idx := strings.IndexAny(text, " \t\n"); idx >= 0 {
		command = text[:idx]
		args = strings.TrimSpace(text[idx+1:])
	}
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), args
}
