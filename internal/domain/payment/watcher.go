package payment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/pkg/metrics"
)

// StatusChecker resolves the current status of a session, applying any
// terminal transition it discovers. *Service satisfies this.
type StatusChecker interface {
	CheckOnce(ctx context.Context, externalID string) (Status, error)
}

// Watcher polls a pending session at a fixed interval until it reaches
// a terminal state or the attempt budget runs out. Timing out leaves
// the session pending and reports OutcomeTimedOut so the caller knows
// to check back later rather than treat the payment as lost.
type Watcher struct {
	checker  StatusChecker
	interval time.Duration
	attempts int
}

func NewWatcher(checker StatusChecker, interval time.Duration, attempts int) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if attempts <= 0 {
		attempts = 20
	}
	return &Watcher{checker: checker, interval: interval, attempts: attempts}
}

// AwaitOutcome blocks until the session is terminal, the attempt cap is
// reached, or ctx is cancelled. Cancellation reports OutcomeTimedOut.
func (w *Watcher) AwaitOutcome(ctx context.Context, externalID string) (Outcome, error) {
	for attempt := 1; attempt <= w.attempts; attempt++ {
		status, err := w.checker.CheckOnce(ctx, externalID)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug().Str("session_id", externalID).Msg("Payment watch cancelled")
				metrics.PaymentOutcomes.WithLabelValues(string(OutcomeTimedOut)).Inc()
				return Outcome{Kind: OutcomeTimedOut, Attempts: attempt}, nil
			}
			return Outcome{}, err
		}

		switch status {
		case StatusPaid:
			return Outcome{Kind: OutcomePaid, Attempts: attempt}, nil
		case StatusExpired:
			return Outcome{Kind: OutcomeExpired, Attempts: attempt}, nil
		case StatusFailed:
			return Outcome{Kind: OutcomeFailed, Attempts: attempt}, nil
		}

		if attempt == w.attempts {
			break
		}

		select {
		case <-time.After(w.interval):
		case <-ctx.Done():
			log.Debug().Str("session_id", externalID).Msg("Payment watch cancelled")
			metrics.PaymentOutcomes.WithLabelValues(string(OutcomeTimedOut)).Inc()
			return Outcome{Kind: OutcomeTimedOut, Attempts: attempt}, nil
		}
	}

	metrics.PaymentOutcomes.WithLabelValues(string(OutcomeTimedOut)).Inc()
	return Outcome{Kind: OutcomeTimedOut, Attempts: w.attempts}, nil
}
