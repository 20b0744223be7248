// Package jobs is a small in-process worker pool. Jobs are routed to a
// handler by type and retried with exponential backoff.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoHandler is returned for job types nobody registered.
	ErrNoHandler = errors.New("no handler registered for job type")
	// ErrNotRunning is returned by Enqueue before Start or after Stop.
	ErrNotRunning = errors.New("queue not running")
)

// Job is a unit of work. Attempt is 0 on the first run and grows by one on
// every retry.
type Job struct {
	ID       string
	Type     string
	Attempt  int
	Enqueued time.Time
}

type Handler func(context.Context, Job) error

// QueueConfig sizes the pool. Zero values pick small defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff; it doubles per attempt up to MaxDelay.
	RetryDelay time.Duration
	MaxDelay   time.Duration
	JobTimeout time.Duration
	Logger     *zap.Logger
}

// Stats is a snapshot of queue counters.
type Stats struct {
	Pending   int    `json:"pending"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Retried   uint64 `json:"retried"`
}

type Queue struct {
	name   string
	cfg    QueueConfig
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool

	jobs    chan Job
	workers sync.WaitGroup
	retries sync.WaitGroup

	processed atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
}

// NewQueue returns a stopped queue. Register handlers, then Start.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxDelay < cfg.RetryDelay {
		cfg.MaxDelay = 30 * cfg.RetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		logger:   logger.With(zap.String("queue", name)),
		handlers: make(map[string]Handler),
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

func (q *Queue) Register(jobType string, h Handler) {
	q.mu.Lock()
	q.handlers[jobType] = h
	q.mu.Unlock()
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and pending retries and waits for in-flight
// handlers to return. Buffered jobs are dropped; callers persist enough to
// recover them.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.workers.Wait()
	q.retries.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue blocks while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	ctx, running := q.ctx, q.running
	_, known := q.handlers[job.Type]
	q.mu.RUnlock()

	switch {
	case !running:
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	case !known:
		return fmt.Errorf("%s: %w: %s", q.name, ErrNoHandler, job.Type)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
}

func (q *Queue) Stats() Stats {
	return Stats{
		Pending:   len(q.jobs),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Retried:   q.retried.Load(),
	}
}

func (q *Queue) work() {
	defer q.workers.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.run(job); err != nil {
				q.retry(job, err)
				continue
			}
			q.processed.Add(1)
		}
	}
}

// run calls the handler, turning a panic into an error.
func (q *Queue) run(job Job) (err error) {
	q.mu.RLock()
	handler := q.handlers[job.Type]
	q.mu.RUnlock()

	ctx := q.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) retry(job Job, cause error) {
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(cause)}
	if job.Attempt >= q.cfg.MaxRetries {
		q.failed.Add(1)
		q.logger.Error("job gave up", fields...)
		return
	}
	q.retried.Add(1)
	delay := q.backoff(job.Attempt)
	q.logger.Warn("job failed, retrying", append(fields, zap.Duration("delay", delay))...)

	job.Attempt++
	q.retries.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer q.retries.Done()
		if err := q.Enqueue(job); err != nil && !errors.Is(err, ErrNotRunning) {
			q.logger.Error("requeue failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	})
	go func() {
		<-q.ctx.Done()
		if timer.Stop() {
			q.retries.Done()
		}
	}()
}

// backoff returns RetryDelay * 2^attempt, capped at MaxDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.RetryDelay
	for i := 0; i < attempt && d < q.cfg.MaxDelay; i++ {
		d *= 2
	}
	if d > q.cfg.MaxDelay {
		d = q.cfg.MaxDelay
	}
	return d
}
