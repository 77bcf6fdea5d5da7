package retryx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/common"
)

func fastPolicy(attempts uint64) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, Jitter: 0}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: connection reset", common.ErrTransientNetwork)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_BudgetExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("%w: timeout", common.ErrTransientNetwork)
	})
	assert.ErrorIs(t, err, common.ErrRetryBudgetExhausted)
	assert.ErrorIs(t, err, common.ErrTransientNetwork)
	assert.Equal(t, 3, calls)
}

func TestDo_TerminalErrorNotRetried(t *testing.T) {
	calls := 0
	terminal := errors.New("schema violation")
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return terminal
	})
	assert.ErrorIs(t, err, terminal)
	assert.NotErrorIs(t, err, common.ErrRetryBudgetExhausted)
	assert.Equal(t, 1, calls)
}
