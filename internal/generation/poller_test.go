package generation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func stubSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return ctx.Err()
	}
}

func TestPollerReturnsResultWhenDone(t *testing.T) {
	p := Poller{Initial: time.Second, Step: time.Second, Max: 5 * time.Second, MaxAttempts: 10, sleep: stubSleep(nil)}

	polls := 0
	result, err := p.Wait(context.Background(), func(ctx context.Context) (bool, *Result, error) {
		polls++
		if polls < 3 {
			return false, nil, nil
		}
		return true, &Result{OutputURL: "https://example.com/out.mp4"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if polls != 3 {
		t.Fatalf("polls = %d, want 3", polls)
	}
	if result.OutputURL != "https://example.com/out.mp4" {
		t.Fatalf("OutputURL = %q", result.OutputURL)
	}
}

func TestPollerTimesOutAfterMaxAttempts(t *testing.T) {
	p := Poller{Initial: time.Second, Step: time.Second, Max: 3 * time.Second, MaxAttempts: 4, sleep: stubSleep(nil)}

	polls := 0
	_, err := p.Wait(context.Background(), func(ctx context.Context) (bool, *Result, error) {
		polls++
		return false, nil, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if polls != 4 {
		t.Fatalf("polls = %d, want 4", polls)
	}
}

func TestPollerDelayGrowsLinearlyWithCap(t *testing.T) {
	var delays []time.Duration
	p := Poller{Initial: 2 * time.Second, Step: 2 * time.Second, Max: 5 * time.Second, MaxAttempts: 4, sleep: stubSleep(&delays)}

	_, _ = p.Wait(context.Background(), func(ctx context.Context) (bool, *Result, error) {
		return false, nil, nil
	})

	want := []time.Duration{2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delays[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestPollerAbortsOnPollError(t *testing.T) {
	p := Poller{Initial: time.Second, Step: time.Second, Max: 5 * time.Second, MaxAttempts: 10, sleep: stubSleep(nil)}

	polls := 0
	boom := errors.New("remote exploded")
	_, err := p.Wait(context.Background(), func(ctx context.Context) (bool, *Result, error) {
		polls++
		if polls == 5 {
			return false, nil, boom
		}
		return false, nil, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if polls != 5 {
		t.Fatalf("polls = %d, want 5", polls)
	}
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Poller{Initial: time.Second, Step: time.Second, Max: 5 * time.Second, MaxAttempts: 10, sleep: stubSleep(nil)}
	_, err := p.Wait(ctx, func(ctx context.Context) (bool, *Result, error) {
		t.Fatal("poll should not run after cancellation")
		return false, nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
