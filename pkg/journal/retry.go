package journal

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/handlerwrap/pkg/core"
)

// RetryConfig controls how journal writes are retried.
type RetryConfig struct {
	// MaxAttempts includes the first attempt. Default: 3
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt. Default: 50ms
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts. Default: 1s
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each attempt. Default: 2.0
	BackoffMultiplier float64

	// JitterFraction randomizes the wait by up to this fraction. Default: 0.1
	JitterFraction float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// RetryingJournal retries failed writes of the journal it wraps. Reads pass
// straight through.
type RetryingJournal struct {
	core.Journal
	config RetryConfig
}

var _ core.Journal = (*RetryingJournal)(nil)

// Retrying wraps j so Record and Prune are retried with backoff.
func Retrying(j core.Journal, config RetryConfig) *RetryingJournal {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &RetryingJournal{Journal: j, config: config}
}

// Record retries j.Record until it succeeds, fails permanently or runs out
// of attempts.
func (r *RetryingJournal) Record(ctx context.Context, inv *core.Invocation) error {
	return retryWithBackoff(ctx, r.config, func() error {
		return r.Journal.Record(ctx, inv)
	})
}

// Prune retries j.Prune.
func (r *RetryingJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := retryWithBackoff(ctx, r.config, func() error {
		var err error
		n, err = r.Journal.Prune(ctx, before)
		return err
	})
	return n, err
}

func retryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = operation()
		if !IsRetryableError(lastErr) || attempt == config.MaxAttempts {
			return lastErr
		}

		wait := backoff + time.Duration(float64(backoff)*config.JitterFraction*(rand.Float64()*2-1))
		if wait < 0 {
			wait = backoff
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
	return lastErr
}

// IsRetryableError reports whether a journal error may be transient.
// Cancellation, missing records and invalid statements are permanent.
func IsRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, core.ErrInvocationRecord), errors.Is(err, gorm.ErrRecordNotFound):
		return false
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrPrimaryKeyRequired), errors.Is(err, gorm.ErrDuplicatedKey):
		return false
	}
	return true
}
