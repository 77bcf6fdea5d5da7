// Package retryx applies the sync core's retry policy to transient network
// failures: exponential backoff with jitter and a fixed attempt budget.
package retryx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkarpins/docsync/internal/common"
)

// Policy describes how often an operation is retried before giving up.
type Policy struct {
	// MaxAttempts is the total number of tries, first attempt included.
	MaxAttempts uint64
	// BaseDelay is the first backoff interval; later intervals double.
	BaseDelay time.Duration
	// Jitter is the maximum random offset added to each interval.
	Jitter time.Duration
}

// DefaultPolicy retries 5 times total: 1s, 2s, 4s, 8s between attempts,
// each interval jittered.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, BaseDelay: time.Second, Jitter: 500 * time.Millisecond}
}

// Do runs fn under the policy. Only errors matching
// common.ErrTransientNetwork are retried; any other error is returned
// immediately. When the budget runs out the last error is wrapped in
// common.ErrRetryBudgetExhausted.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts == 0 {
		p = DefaultPolicy()
	}

	b := retry.NewExponential(p.BaseDelay)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	b = retry.WithMaxRetries(p.MaxAttempts-1, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, common.ErrTransientNetwork) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrTransientNetwork) {
		return fmt.Errorf("%w: %w", common.ErrRetryBudgetExhausted, err)
	}
	return err
}
