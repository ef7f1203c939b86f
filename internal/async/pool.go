package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs jobs on a fixed set of workers. Each job gets its own deadline
// derived from the context the pool was started with, so cancelling that
// context stops in-flight work too.
type Pool struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration
	base    context.Context

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}

// WithJobTimeout bounds each job. Zero leaves jobs bounded only by the base context.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPool starts the workers immediately.
func NewPool(ctx context.Context, handler Handler, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		handler: handler,
		logger:  logger,
		workers: 1,
		base:    ctx,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("worker started", "worker_id", workerID)

				for job := range p.ch {
					p.run(workerID, job)
				}

				p.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(workerID int, job Job) {
	ctx, cancel := p.base, context.CancelFunc(func() {})
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(p.base, p.timeout)
	}
	defer cancel()

	start := time.Now()
	if err := p.handler(ctx, job); err != nil {
		p.logger.Debug("job failed", "worker_id", workerID, "page", job.Page, "job_id", job.ID, "error", err)
		return
	}
	p.logger.Debug("job done", "worker_id", workerID, "page", job.Page, "job_id", job.ID,
		"duration_ms", time.Since(start).Milliseconds())
}

// Enqueue blocks while the queue is full, until ctx is done.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.ch <- job:
		return nil
	default:
	}
	p.logger.Debug("queue full, applying backpressure", "page", job.Page)
	select {
	case p.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("shutdown interrupted by context")
	case <-done:
		p.logger.Debug("queue drained")
	}
}

var _ Queue = (*Pool)(nil)
