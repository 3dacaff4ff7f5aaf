package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PollFunc performs one status query against a long-running operation. It
// returns done=true with a final result, done=false to keep waiting, or an
// error to abort the poll immediately. A non-2xx status response is an abort,
// not a retryable condition.
type PollFunc func(ctx context.Context) (done bool, result *Result, err error)

// Poller drives a long-running remote operation to completion by polling with
// a capped, linearly growing delay. The zero value is not usable; providers
// construct one with their own timing profile.
type Poller struct {
	// Initial is the delay before the first poll.
	Initial time.Duration
	// Step is added to the delay after each non-terminal poll.
	Step time.Duration
	// Max caps the delay between polls.
	Max time.Duration
	// MaxAttempts bounds the total number of polls before ErrTimeout.
	MaxAttempts int

	Logger zerolog.Logger

	// sleep is swapped out by tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// Wait polls until the operation reports done, the poll errors, the context
// is cancelled, or the attempt budget is exhausted.
func (p Poller) Wait(ctx context.Context, poll PollFunc) (*Result, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.Initial
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}

		done, result, err := poll(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}

		if delay += p.Step; delay > p.Max {
			delay = p.Max
		}
		if attempt > 0 && attempt%6 == 0 {
			p.Logger.Debug().Int("attempt", attempt).Msg("generation: operation still in progress")
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrTimeout, p.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
