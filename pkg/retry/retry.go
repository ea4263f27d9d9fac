package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Config struct {
	// MaxRetries of 0 retries until ctx is done.
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
	}
}

// NewBackOff builds the exponential policy described by cfg, bound to ctx.
func NewBackOff(ctx context.Context, cfg Config) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = cfg.Multiplier
	bo.MaxElapsedTime = 0
	bo.Reset()

	var policy backoff.BackOff = bo
	if cfg.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(bo, cfg.MaxRetries)
	}
	return backoff.WithContext(policy, ctx)
}

func Do(ctx context.Context, log *zap.Logger, operationName string, operation func() error, cfg Config) error {
	notify := func(err error, t time.Duration) {
		log.Warn("Operation failed, retrying",
			zap.String("operation", operationName),
			zap.Error(err),
			zap.Duration("next_attempt_in", t.Round(time.Millisecond)),
		)
	}

	return backoff.RetryNotify(operation, NewBackOff(ctx, cfg), notify)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
