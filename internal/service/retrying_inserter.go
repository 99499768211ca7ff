package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const defaultEnqueueBackoff = 200 * time.Millisecond

// RetryingJobInserter retries Insert with exponential backoff and jitter so a brief database hiccup
// does not lose an embedding or notification job.
type RetryingJobInserter struct {
	inner          JobInserter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// RetryingJobInserterConfig bounds the retries. Total attempts = 1 + MaxRetries.
type RetryingJobInserterConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewRetryingJobInserter wraps inner.
func NewRetryingJobInserter(inner JobInserter, cfg RetryingJobInserterConfig) *RetryingJobInserter {
	cfg.MaxRetries = max(cfg.MaxRetries, 0)

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultEnqueueBackoff
	}

	cfg.MaxBackoff = max(cfg.MaxBackoff, cfg.InitialBackoff)

	return &RetryingJobInserter{
		inner:          inner,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

// Insert implements JobInserter. Backoff sleeps end early when ctx is done.
func (r *RetryingJobInserter) Insert(
	ctx context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	backoff := r.initialBackoff

	for attempt := 0; ; attempt++ {
		res, err := r.inner.Insert(ctx, args, opts)
		if err == nil {
			return res, nil
		}

		if attempt == r.maxRetries {
			return nil, fmt.Errorf("insert %s job after %d attempts: %w", args.Kind(), attempt+1, err)
		}

		wait := withJitter(backoff)
		slog.WarnContext(ctx, "job enqueue failed, retrying",
			"kind", args.Kind(), "attempt", attempt+1, "backoff", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, fmt.Errorf("enqueue backoff interrupted: %w", ctx.Err())
		case <-timer.C:
		}

		backoff = min(backoff*2, r.maxBackoff)
	}
}

// withJitter returns a duration in [d/2, d).
func withJitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}

	//nolint:gosec // jitter does not need a cryptographic source
	return half + rand.N(half)
}
