package backend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// #region constants

// MaxRetries is the default retry budget: 2 retries = 3 total attempts.
const MaxRetries = 2

// #endregion

// #region retry

// Retrying wraps a Generator and retries failed calls with linear backoff.
// Context errors are never retried; the governor's timeout bounds all attempts.
type Retrying struct {
	next    Generator
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// WithRetry wraps next with the given retry budget.
func WithRetry(next Generator, retries int, backoff time.Duration, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries < 0 {
		retries = 0
	}
	return &Retrying{next: next, retries: retries, backoff: backoff, logger: logger.Named("retry")}
}

// Generate calls the wrapped generator until it succeeds or the budget is spent.
func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	var err error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * r.backoff):
			}
			r.logger.Debug("Retrying backend call", zap.Int("attempt", attempt+1), zap.Error(err))
		}

		var text string
		text, err = r.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
	}
	return "", err
}

// #endregion
