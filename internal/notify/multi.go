package notify

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

const (
	maxAttempts = 3
	baseDelay   = 250 * time.Millisecond
	maxDelay    = 5 * time.Second
)

// Multi fans a notification out to several notifiers, retrying each one with
// jittered exponential backoff. Delivery failures are collected, never fatal
// to the other notifiers.
type Multi struct {
	notifiers []rfp.Notifier
	logger    *zap.Logger
}

// NewMulti builds a Multi over the given notifiers.
func NewMulti(logger *zap.Logger, notifiers ...rfp.Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

// Notify delivers to every notifier and joins whatever errors remain after
// retries.
func (m *Multi) Notify(ctx context.Context, opportunities []rfp.Opportunity, session rfp.ScrapeSession) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := m.deliver(ctx, n, opportunities, session); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) deliver(ctx context.Context, n rfp.Notifier, opportunities []rfp.Opportunity, session rfp.ScrapeSession) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}
		lastErr = n.Notify(ctx, opportunities, session)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		m.logger.Warn("notification attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("session_id", session.ID),
			zap.Error(lastErr),
		)
	}
	return lastErr
}

func backoff(attempt int) time.Duration {
	delay := float64(baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
