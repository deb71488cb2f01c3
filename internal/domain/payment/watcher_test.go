package payment

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedChecker struct {
	statuses []Status
	calls    int
	err      error
}

func (c *scriptedChecker) CheckOnce(ctx context.Context, externalID string) (Status, error) {
	if c.err != nil {
		return "", c.err
	}
	status := c.statuses[len(c.statuses)-1]
	if c.calls < len(c.statuses) {
		status = c.statuses[c.calls]
	}
	c.calls++
	return status, nil
}

func TestWatcherReturnsPaid(t *testing.T) {
	checker := &scriptedChecker{statuses: []Status{StatusPending, StatusPending, StatusPaid}}
	watcher := NewWatcher(checker, time.Millisecond, 10)

	outcome, err := watcher.AwaitOutcome(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomePaid {
		t.Fatalf("expected paid, got %s", outcome.Kind)
	}
	if outcome.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", outcome.Attempts)
	}
}

func TestWatcherReportsExpiredAndFailed(t *testing.T) {
	for _, tc := range []struct {
		status  Status
		outcome OutcomeKind
	}{
		{StatusExpired, OutcomeExpired},
		{StatusFailed, OutcomeFailed},
	} {
		checker := &scriptedChecker{statuses: []Status{tc.status}}
		watcher := NewWatcher(checker, time.Millisecond, 5)

		outcome, err := watcher.AwaitOutcome(context.Background(), "cs_123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Kind != tc.outcome {
			t.Fatalf("expected %s, got %s", tc.outcome, outcome.Kind)
		}
	}
}

func TestWatcherTimesOutWhileStillPending(t *testing.T) {
	checker := &scriptedChecker{statuses: []Status{StatusPending}}
	watcher := NewWatcher(checker, time.Millisecond, 4)

	outcome, err := watcher.AwaitOutcome(context.Background(), "cs_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", outcome.Kind)
	}
	if checker.calls != 4 {
		t.Fatalf("expected 4 checks, got %d", checker.calls)
	}
}

func TestWatcherHonorsCancellation(t *testing.T) {
	checker := &scriptedChecker{statuses: []Status{StatusPending}}
	watcher := NewWatcher(checker, time.Hour, 10)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := watcher.AwaitOutcome(ctx, "cs_123")
		done <- outcome
	}()

	select {
	case outcome := <-done:
		if outcome.Kind != OutcomeTimedOut {
			t.Fatalf("expected timed_out on cancel, got %s", outcome.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

type cancellingChecker struct {
	cancel context.CancelFunc
}

func (c *cancellingChecker) CheckOnce(ctx context.Context, externalID string) (Status, error) {
	c.cancel()
	return "", ctx.Err()
}

func TestWatcherCancelledMidCheckReportsTimedOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := &cancellingChecker{cancel: cancel}
	watcher := NewWatcher(checker, time.Millisecond, 5)

	outcome, err := watcher.AwaitOutcome(ctx, "cs_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", outcome.Kind)
	}
	if outcome.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", outcome.Attempts)
	}
}

func TestWatcherPropagatesCheckError(t *testing.T) {
	wantErr := errors.New("gateway unreachable")
	checker := &scriptedChecker{err: wantErr}
	watcher := NewWatcher(checker, time.Millisecond, 3)

	_, err := watcher.AwaitOutcome(context.Background(), "cs_123")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected check error, got %v", err)
	}
}
