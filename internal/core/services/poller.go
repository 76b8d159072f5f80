package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
)

// Polling defaults: up to 60 attempts, 5 seconds apart.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollAttempts = 60
)

// PollOptions configures a status polling loop.
type PollOptions struct {
	// Interval between attempts. Zero selects DefaultPollInterval.
	Interval time.Duration

	// MaxAttempts bounds the loop. Zero selects DefaultPollAttempts.
	MaxAttempts int

	// OnPoll, when set, receives every observed snapshot. Used by the CLI
	// for progress display.
	OnPoll func(*domain.Job)
}

// PollJobStatus polls a job at a fixed interval until it reaches a terminal
// status or the attempt budget runs out. Exhausting the budget is a
// client-side timeout: the last observed snapshot is returned together with
// domain.ErrPollTimeout, and the job keeps running server-side.
func PollJobStatus(
	ctx context.Context,
	mgr driving.JobManager,
	jobID string,
	opts PollOptions,
) (*domain.Job, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}

	var last *domain.Job
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(interval):
			}
		}

		snapshot, err := mgr.GetStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		last = snapshot

		if opts.OnPoll != nil {
			opts.OnPoll(snapshot)
		}
		if snapshot.Status.Terminal() {
			return snapshot, nil
		}
	}

	return last, fmt.Errorf("%w: job %s still %s after %d attempts",
		domain.ErrPollTimeout, jobID, last.Status, attempts)
}
