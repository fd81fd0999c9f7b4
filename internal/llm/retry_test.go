package llm

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testPolicy() *RetryPolicy {
	// Millisecond delays keep the retry tests fast.
	return &RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestBackoffDoubles(t *testing.T) {
	policy := NewRetryPolicy()

	assert.Equal(t, 5*time.Second, policy.Backoff(0))
	assert.Equal(t, 10*time.Second, policy.Backoff(1))
	assert.Equal(t, 20*time.Second, policy.Backoff(2))
}

func TestExecute_SucceedsAfterTransientFailure(t *testing.T) {
	logger := arbor.NewLogger()
	attempts := 0
	transient := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	err := testPolicy().Execute(context.Background(), logger, func() error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecute_NonRetryableFailsImmediately(t *testing.T) {
	logger := arbor.NewLogger()
	attempts := 0
	permanent := errors.New("malformed request")

	err := testPolicy().Execute(context.Background(), logger, func() error {
		attempts++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts, "non-retryable errors must not be retried")
}

func TestExecute_SurfacesLastErrorAfterExhaustion(t *testing.T) {
	logger := arbor.NewLogger()
	attempts := 0
	transient := &net.OpError{Op: "read", Err: errors.New("connection reset")}

	err := testPolicy().Execute(context.Background(), logger, func() error {
		attempts++
		return transient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 4, attempts, "initial attempt plus MaxRetries")
}

func TestExecute_ContextCancelStopsRetries(t *testing.T) {
	logger := arbor.NewLogger()
	ctx, cancel := context.WithCancel(context.Background())
	transient := &net.OpError{Op: "dial", Err: errors.New("timeout")}

	policy := &RetryPolicy{MaxRetries: 3, InitialDelay: time.Minute, Multiplier: 2.0}
	done := make(chan error, 1)
	go func() {
		done <- policy.Execute(ctx, logger, func() error { return transient })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after context cancellation")
	}
}

func TestIsFatal(t *testing.T) {
	fatal := &FatalError{StatusCode: 401, Err: errors.New("invalid x-api-key")}

	assert.True(t, IsFatal(fatal))
	assert.True(t, IsFatal(errWrap(fatal)))
	assert.False(t, IsFatal(errors.New("transient")))
}

func errWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ inner error }

func (w *wrapped) Error() string { return "wrapped: " + w.inner.Error() }
func (w *wrapped) Unwrap() error { return w.inner }
