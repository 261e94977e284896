package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type statusErr struct{ retry bool }

func (e statusErr) Error() string   { return "status" }
func (e statusErr) Retryable() bool { return e.retry }

func fastPolicy(tries uint) Policy {
	return Policy{MaxTries: tries, StepTimeout: 50 * time.Millisecond, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastPolicy(3), "test", zap.NewNop(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), "test", nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, statusErr{retry: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var se statusErr
	assert.True(t, errors.As(err, &se), "permanent error should be returned unwrapped: %v", err)
}

func TestDo_GivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2), "test", nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, statusErr{retry: true}
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_StepTimeoutIsRetryable(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastPolicy(2), "test", nil, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestDo_CallerCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, fastPolicy(5), "test", nil, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.True(t, Retryable(errors.New("eof")))
	assert.False(t, Retryable(statusErr{retry: false}))
	assert.True(t, Retryable(statusErr{retry: true}))
}
