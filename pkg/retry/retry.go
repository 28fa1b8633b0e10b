package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Strategy selects how the delay between attempts grows.
type Strategy string

const (
	// StrategyExponential multiplies the delay by BackoffFactor after each attempt.
	StrategyExponential Strategy = "exponential"
	// StrategyLinear waits InitialDelay*n after the n-th failed attempt (1s, 2s, 3s...).
	StrategyLinear Strategy = "linear"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Strategy        Strategy
	AttemptTimeout  time.Duration
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		Strategy:        StrategyExponential,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// LinearConfig returns a policy of maxAttempts total tries separated by step, 2*step, ...
func LinearConfig(maxAttempts int, step time.Duration) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: step,
		MaxDelay:     step * time.Duration(max(maxAttempts, 1)),
		Strategy:     StrategyLinear,
	}
}

// DelayAfter returns the pause that follows the given (1-based) failed attempt.
func (c Config) DelayAfter(attempt int) time.Duration {
	if attempt < 1 || c.InitialDelay <= 0 {
		return 0
	}

	var d time.Duration
	switch c.Strategy {
	case StrategyLinear:
		d = c.InitialDelay * time.Duration(attempt)
	default:
		factor := c.BackoffFactor
		if factor < 1 {
			factor = 1
		}
		f := float64(c.InitialDelay)
		for i := 1; i < attempt; i++ {
			f *= factor
		}
		d = time.Duration(f)
	}

	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Budget is the worst-case wall time of a full run when each attempt may take perAttempt.
func (c Config) Budget(perAttempt time.Duration) time.Duration {
	total := time.Duration(c.MaxAttempts) * perAttempt
	for i := 1; i < c.MaxAttempts; i++ {
		total += c.DelayAfter(i)
	}
	return total
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Run executes fn until it succeeds, returns a permanent error, or the policy is
// exhausted. It reports how many attempts were made.
func Run(ctx context.Context, cfg Config, fn func(ctx context.Context) error, logFn func(attempt int, err error, nextDelay time.Duration)) (int, error) {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt - 1, fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt-1, err, lastErr)
			}
			return attempt - 1, fmt.Errorf("retry aborted: %w", err)
		}

		err := runAttempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return attempt, err
		}
		if attempt == maxAttempts {
			return attempt, fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
		}

		delay := cfg.DelayAfter(attempt)
		if logFn != nil {
			logFn(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return maxAttempts, fmt.Errorf("max retry attempts exceeded: %w", lastErr)
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// Do executes the given function with the configured backoff
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, cfg, fn, nil)
	return err
}

// DoWithLog executes the function with retry and logs each failed attempt
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func(ctx context.Context) error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if _, err := Run(ctx, cfg, fn, logFn); err != nil {
		return fmt.Errorf("%s: %w", serviceName, err)
	}
	return nil
}
