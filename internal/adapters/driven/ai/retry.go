package ai

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// retryPolicy retries transient API failures with exponential backoff.
// Failures marked permanent surface immediately.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

// defaultRetryPolicy matches the providers' guidance for embedding and
// chat endpoints
func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxAttempts: 3,
		baseDelay:   500 * time.Millisecond,
	}
}

// do runs fn until it succeeds, attempts are exhausted, the error is
// permanent, or the context ends. The delay doubles per attempt.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	var err error
	delay := p.baseDelay
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if isPermanent(err) || attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// permanentError marks a failure that retrying cannot fix, such as a
// rejected request body or bad credentials.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent flags err so the retry policy stops on it.
func permanent(err error) error {
	return &permanentError{err: err}
}

// isPermanent reports whether any error in the chain is flagged permanent.
func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// retryableStatus classifies an HTTP response code. Timeouts, rate
// limits, and server errors are transient; any other non-2xx response
// will fail the same way on every attempt.
func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}
