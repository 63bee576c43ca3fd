package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePopReturnsPushed(t *testing.T) {
	q := newJobQueue()
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))

	id, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	id, err = q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", id)
	assert.Equal(t, 0, q.Size())
}

func TestQueuePopCancelWhileEmpty(t *testing.T) {
	q := newJobQueue()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errCh <- err
	}()

	// Let the waiter park before cancelling.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not return after cancellation")
	}

	// The queue must still be usable: no held lock, no corrupted state.
	require.NoError(t, q.Push("after-cancel"))
	id, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after-cancel", id)
	require.NoError(t, q.Close())
}

func TestQueuePopCancelledBeforeWait(t *testing.T) {
	q := newJobQueue()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, q.Push("x"))
	id, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", id)
}

func TestQueueCloseUnblocksWaiters(t *testing.T) {
	q := newJobQueue()

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not return after Close")
	}

	assert.ErrorIs(t, q.Push("late"), ErrQueueClosed)
}
