package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []uuid.UUID
	err  error
	done chan struct{}
}

func (p *recordingProcessor) Process(ctx context.Context, job Job) error {
	p.mu.Lock()
	p.seen = append(p.seen, job.SessionID)
	count := len(p.seen)
	p.mu.Unlock()
	if p.done != nil && count == cap(p.seen) {
		close(p.done)
	}
	return p.err
}

func (p *recordingProcessor) sessions() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.seen...)
}

func TestQueue_Enqueue(t *testing.T) {
	t.Run("Accepts Until Capacity", func(t *testing.T) {
		q := New(2)
		assert.NoError(t, q.Enqueue(Job{SessionID: uuid.New()}))
		assert.NoError(t, q.Enqueue(Job{SessionID: uuid.New()}))
		assert.Equal(t, 2, q.Len())
	})

	t.Run("Rejects When Full", func(t *testing.T) {
		q := New(1)
		assert.NoError(t, q.Enqueue(Job{SessionID: uuid.New()}))

		err := q.Enqueue(Job{SessionID: uuid.New()})
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.Equal(t, 1, q.Len())
	})
}

func TestQueue_RunWorkers(t *testing.T) {
	t.Run("Processes Queued Jobs", func(t *testing.T) {
		q := New(8)
		first, second := uuid.New(), uuid.New()
		assert.NoError(t, q.Enqueue(Job{SessionID: first}))
		assert.NoError(t, q.Enqueue(Job{SessionID: second}))

		processor := &recordingProcessor{seen: make([]uuid.UUID, 0, 2), done: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan error, 1)
		go func() { finished <- q.RunWorkers(ctx, 2, processor) }()

		select {
		case <-processor.done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs were not processed in time")
		}
		cancel()

		assert.NoError(t, <-finished)
		assert.ElementsMatch(t, []uuid.UUID{first, second}, processor.sessions())
	})

	t.Run("Job Failure Does Not Stop The Worker", func(t *testing.T) {
		q := New(8)
		first, second := uuid.New(), uuid.New()
		assert.NoError(t, q.Enqueue(Job{SessionID: first}))
		assert.NoError(t, q.Enqueue(Job{SessionID: second}))

		processor := &recordingProcessor{
			seen: make([]uuid.UUID, 0, 2),
			done: make(chan struct{}),
			err:  errors.New("corrupt upload"),
		}
		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan error, 1)
		go func() { finished <- q.RunWorkers(ctx, 1, processor) }()

		select {
		case <-processor.done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs were not processed in time")
		}
		cancel()

		assert.NoError(t, <-finished)
		assert.Equal(t, []uuid.UUID{first, second}, processor.sessions())
	})

	t.Run("Stops On Cancellation", func(t *testing.T) {
		q := New(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := q.RunWorkers(ctx, 3, &recordingProcessor{})
		assert.NoError(t, err)
	})
}
