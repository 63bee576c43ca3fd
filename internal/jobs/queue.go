package jobs

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// jobQueue is an in-memory FIFO of job IDs. Pop blocks until a job is
// available, the queue is closed, or the context is cancelled.
type jobQueue struct {
	ids    []string
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) Push(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.ids = append(q.ids, id)
	q.cond.Signal()
	return nil
}

func (q *jobQueue) Pop(ctx context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Wake the waiter when the context ends. Taking the lock before the
	// broadcast guarantees the waiter is parked in Wait, not between its
	// ctx check and Wait.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	for len(q.ids) == 0 && !q.closed {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		q.cond.Wait()
	}

	if len(q.ids) == 0 {
		return "", ErrQueueClosed
	}

	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

func (q *jobQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

func (q *jobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
	return nil
}
