package journal

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jdziat/handlerwrap/pkg/core"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// flakyJournal fails the first n writes.
type flakyJournal struct {
	core.Journal
	failures int32
	calls    atomic.Int32
	err      error
}

func (f *flakyJournal) Record(ctx context.Context, inv *core.Invocation) error {
	if f.calls.Add(1) <= f.failures {
		return f.err
	}
	return f.Journal.Record(ctx, inv)
}

func (f *flakyJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	if f.calls.Add(1) <= f.failures {
		return 0, f.err
	}
	return f.Journal.Prune(ctx, before)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, time.Second, cfg.MaxBackoff)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
	assert.Equal(t, 0.1, cfg.JitterFraction)
}

func TestRetrying_RecordSucceedsAfterFailures(t *testing.T) {
	j := newTestJournal(t)
	flaky := &flakyJournal{Journal: j, failures: 2, err: errors.New("database is locked")}
	r := Retrying(flaky, fastRetry(3))

	inv := &core.Invocation{Handler: "a::B", Kind: core.KindTyped}
	require.NoError(t, r.Record(context.Background(), inv))
	assert.Equal(t, int32(3), flaky.calls.Load())

	got, err := r.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "a::B", got.Handler)
}

func TestRetrying_GivesUp(t *testing.T) {
	j := newTestJournal(t)
	flaky := &flakyJournal{Journal: j, failures: 10, err: errors.New("connection reset")}
	r := Retrying(flaky, fastRetry(3))

	err := r.Record(context.Background(), &core.Invocation{Handler: "a::B"})
	assert.EqualError(t, err, "connection reset")
	assert.Equal(t, int32(3), flaky.calls.Load())
}

func TestRetrying_PermanentErrorNotRetried(t *testing.T) {
	j := newTestJournal(t)
	flaky := &flakyJournal{Journal: j, failures: 10, err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)}
	r := Retrying(flaky, fastRetry(5))

	err := r.Record(context.Background(), &core.Invocation{Handler: "a::B"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, int32(1), flaky.calls.Load())
}

func TestRetrying_Prune(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, j.Record(ctx, &core.Invocation{Handler: "a::B", Status: core.StatusSucceeded, StartedAt: old}))

	flaky := &flakyJournal{Journal: j, failures: 1, err: errors.New("busy")}
	n, err := Retrying(flaky, fastRetry(2)).Prune(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRetrying_ContextCancelled(t *testing.T) {
	j := newTestJournal(t)
	flaky := &flakyJournal{Journal: j, failures: 10, err: errors.New("busy")}
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Retrying(flaky, cfg).Record(ctx, &core.Invocation{Handler: "a::B"}) }()

	require.Eventually(t, func() bool { return flaky.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancel")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("q: %w", context.DeadlineExceeded), false},
		{"missing record", core.ErrInvocationRecord, false},
		{"gorm not found", gorm.ErrRecordNotFound, false},
		{"duplicate key", gorm.ErrDuplicatedKey, false},
		{"generic", errors.New("database is locked"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}
