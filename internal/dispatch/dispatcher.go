// Package dispatch owns request admission and the bounded worker pool that
// drives the pipeline. It is the only component that runs pipeline work
// concurrently; everything downstream sees one request at a time.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vapord/internal/config"
	"vapord/internal/journal"
	"vapord/internal/logging"
	"vapord/internal/request"
)

// Admission errors returned by Submit. Both are user-visible conditions; the
// caller maps them to a reply.
var (
	ErrQueueFull  = errors.New("request queue full")
	ErrNotRunning = errors.New("dispatcher not running")
)

// Runner executes one request to a terminal status.
type Runner interface {
	Run(ctx context.Context, req *request.Request) error
}

// Dispatcher accepts requests and fans them out to a fixed pool of workers.
// Admission is non-blocking: when the queue is full the request is rejected
// immediately rather than stalling the caller.
type Dispatcher struct {
	cfg     *config.Config
	runner  Runner
	journal *journal.Store
	logger  *slog.Logger

	mu        sync.Mutex
	queue     chan *request.Request
	accepting bool
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// New constructs a dispatcher. Start must be called before Submit.
func New(cfg *config.Config, runner Runner, store *journal.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		runner:  runner,
		journal: store,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Start launches the worker pool. Workers run until Stop is called or ctx is
// canceled; cancelation aborts in-flight pipeline runs through their context.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.accepting {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.queue = make(chan *request.Request, d.cfg.Pipeline.QueueDepth)
	d.accepting = true

	for i := 0; i < d.cfg.Pipeline.Workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}
	d.logger.Info("dispatcher started",
		logging.Int("workers", d.cfg.Pipeline.Workers),
		logging.Int("queue_depth", d.cfg.Pipeline.QueueDepth),
	)
}

// Stop closes admission, drains queued requests, and waits for in-flight
// work to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.accepting {
		d.mu.Unlock()
		return
	}
	d.accepting = false
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
	d.logger.Info("dispatcher stopped")
}

// Submit validates and enqueues a request. The short-query check runs here
// so malformed requests never consume a worker slot.
func (d *Dispatcher) Submit(req *request.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if len(req.Query()) < d.cfg.Pipeline.MinQueryLength {
		err := request.Wrap(request.ErrEmptyOrShortQuery, "admission", "validate query", req.Query(), nil)
		req.Status = request.StatusFailed
		d.record(req, err, 0)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.accepting {
		return ErrNotRunning
	}
	select {
	case d.queue <- req:
		d.logger.Info("request accepted",
			logging.String(logging.FieldRequestID, req.ID),
			logging.String(logging.FieldUsername, req.Username),
			logging.String(logging.FieldQuery, req.Query()),
		)
		return nil
	default:
		d.logger.Warn("request rejected, queue full",
			logging.String(logging.FieldRequestID, req.ID),
			logging.String(logging.FieldUsername, req.Username),
		)
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for req := range d.queue {
		d.process(ctx, req)
	}
}

func (d *Dispatcher) process(ctx context.Context, req *request.Request) {
	logger := d.logger.With(logging.String(logging.FieldRequestID, req.ID))
	start := time.Now()

	err := d.runner.Run(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("request failed",
			logging.String(logging.FieldQuery, req.Query()),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		if req.Sink != nil {
			if sendErr := req.Sink.SendText(req.ChatID, request.UserMessage(err)); sendErr != nil {
				logger.Warn("failure notice undeliverable", logging.Error(sendErr))
			}
		}
	} else {
		logger.Info("request completed",
			logging.String(logging.FieldQuery, req.Query()),
			logging.Duration("elapsed", elapsed),
		)
	}
	d.record(req, err, elapsed)
}

func (d *Dispatcher) record(req *request.Request, runErr error, elapsed time.Duration) {
	if d.journal == nil {
		return
	}
	outcome := journal.Outcome{
		RequestID:      req.ID,
		Username:       req.Username,
		QueryText:      req.Query(),
		Status:         req.Status,
		ElapsedSeconds: elapsed.Seconds(),
	}
	if runErr != nil {
		outcome.Reason = runErr.Error()
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.journal.Record(recordCtx, outcome); err != nil {
		d.logger.Warn("outcome not recorded",
			logging.String(logging.FieldRequestID, req.ID),
			logging.Error(err),
		)
	}
}
