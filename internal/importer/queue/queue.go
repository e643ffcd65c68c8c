// Package queue provides the bounded in-process job queue and worker pool
// that drive asynchronous import processing.
package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull indicates the queue is at capacity and the submission should
// be rejected rather than blocked on.
var ErrQueueFull = errors.New("import queue is full")

// Job identifies one queued import session awaiting processing.
type Job struct {
	SessionID uuid.UUID
}

// Processor handles one dequeued job. Processing errors are terminal for the
// job, not for the worker.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// Queue is a bounded FIFO of import jobs. Each session is enqueued exactly
// once, which serializes all processing for a given session.
type Queue struct {
	jobs chan Job
}

func New(capacity int) *Queue {
	return &Queue{jobs: make(chan Job, capacity)}
}

// Enqueue submits a job without blocking. A full queue returns ErrQueueFull
// so the caller can reject the upload with backpressure.
func (q *Queue) Enqueue(job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports the number of jobs currently waiting.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// RunWorkers starts workerCount goroutines consuming the queue until ctx is
// cancelled. It blocks until every worker has drained out.
func (q *Queue) RunWorkers(ctx context.Context, workerCount int, processor Processor) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		worker := i
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case job := <-q.jobs:
					slog.InfoContext(ctx, "Processing import job", "workerId", worker, "importSessionId", job.SessionID)
					if err := processor.Process(ctx, job); err != nil {
						slog.ErrorContext(ctx, "Import job failed", "workerId", worker, "importSessionId", job.SessionID, "error", err)
					}
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
