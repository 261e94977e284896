// Package retry runs calls to remote collaborators with a per-attempt deadline and exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/sqlrag/internal/config"
)

// Policy bounds attempts and their duration.
type Policy struct {
	MaxTries        uint
	StepTimeout     time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// FromConfig builds a policy from the retry section of the config.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxTries:        cfg.MaxTries,
		StepTimeout:     cfg.StepTimeout,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
	}
}

// Once is a policy that makes a single attempt with no deadline of its own.
var Once = Policy{MaxTries: 1}

// Do runs op until it succeeds, fails permanently, or MaxTries attempts are used.
// Each attempt gets its own StepTimeout deadline; hitting it counts as a retryable failure.
// Cancellation of ctx stops retrying immediately.
func Do[T any](ctx context.Context, p Policy, stage string, logger *zap.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		stepCtx := ctx
		if p.StepTimeout > 0 {
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, p.StepTimeout)
			defer cancel()
		}
		v, err := op(stepCtx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Warn("retrying after failure",
				zap.String("stage", stage),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		}
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(notify))
}

// Retryable reports whether err may clear on a later attempt.
// Errors that expose a Retryable method decide for themselves; caller cancellation never retries;
// everything else (transport failures, per-attempt deadlines) does.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
