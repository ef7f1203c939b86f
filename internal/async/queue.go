package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue is shutting down")

// Job is one page of a document to process.
type Job struct {
	ID          uuid.UUID
	Page        int
	SubmittedAt time.Time
}

// NewJob stamps a page job with an ID and submission time.
func NewJob(page int) Job {
	return Job{ID: uuid.New(), Page: page, SubmittedAt: time.Now()}
}

// Handler processes a single job. The context carries the per-job deadline.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
