package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		done <- job
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "archive"}))

	select {
	case job := <-done:
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueJobTimeout(t *testing.T) {
	errs := make(chan error, 1)
	q := NewQueue("timeout", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return nil
	}, QueueConfig{JobTimeout: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "slow"}))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not cancelled")
	}
}

func TestQueueBackoff(t *testing.T) {
	q := NewQueue("backoff", nil, QueueConfig{RetryDelay: 100 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, q.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, q.Backoff(1))
	assert.Equal(t, 400*time.Millisecond, q.Backoff(3))
}

func TestQueueRecoversPanicsAndAbandons(t *testing.T) {
	var attempts int32
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		panic("corrupt payload")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "bad"}))

	require.Eventually(t, func() bool {
		return q.Stats().Abandoned == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, uint64(1), q.Stats().Retried)
	assert.Zero(t, q.Stats().Succeeded)
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := NewQueue("stopped", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()
	q.Stop()

	assert.Error(t, q.Enqueue(Job{ID: "late"}))
	q.Start(context.Background())
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}
