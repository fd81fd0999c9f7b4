package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/arbor"
)

// FatalError marks a failure that must abort the whole run: invalid
// credentials or an exhausted billing plan. It is never retried.
type FatalError struct {
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	return "fatal model API error (check API key and billing): " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// RetryPolicy defines retry behavior with exponential backoff for model calls.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
}

// NewRetryPolicy creates the default policy: 3 retries, 5s base delay, doubling.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 5 * time.Second,
		Multiplier:   2.0,
	}
}

// Backoff returns the delay before the given zero-based retry attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return delay
}

// Execute runs fn, retrying transient failures and aborting immediately on
// fatal ones. The last error is surfaced after retries are exhausted.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if fatal := classifyFatal(lastErr); fatal != nil {
			logger.Error().
				Err(lastErr).
				Int("status_code", fatal.StatusCode).
				Msg("Fatal model API error, not retrying")
			return fatal
		}

		if !isRetryable(lastErr) || attempt == p.MaxRetries {
			return lastErr
		}

		backoff := p.Backoff(attempt)
		logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Transient model API error, retrying after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// classifyFatal returns a FatalError for authentication and billing failures.
func classifyFatal(err error) *FatalError {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return nil
	}
	switch apierr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return &FatalError{StatusCode: apierr.StatusCode, Err: err}
	}
	return nil
}

// isRetryable reports whether the error is transient: rate limiting,
// server-side failures, or network-level problems.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusRequestTimeout:
			return true
		case apierr.StatusCode == http.StatusTooManyRequests:
			return true
		case apierr.StatusCode >= 500: // includes 529 overloaded
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
