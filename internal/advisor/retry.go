package advisor

import (
	"context"
	"errors"
	"time"
)

// ErrServiceBusy is the user-facing condition after the retry budget is
// exhausted. Distinct from a malformed upstream response.
var ErrServiceBusy = errors.New("advisory service busy")

// ErrMalformedResponse marks an upstream reply that could not be decoded.
var ErrMalformedResponse = errors.New("malformed advisor response")

// RetryPolicy bounds repeated attempts with a fixed delay between them.
// No backoff, no circuit breaker.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy matches the advisory call budget: two retries,
// one second apart.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 2, Delay: time.Second}

// Do runs fn up to 1+MaxRetries times, sleeping Delay between attempts.
// A malformed-response error aborts immediately and is returned as-is;
// retrying cannot repair a reply that decoded wrong. Any other
// exhausted failure collapses into ErrServiceBusy.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrMalformedResponse) {
			return "", err
		}
		lastErr = err
	}

	return "", errors.Join(ErrServiceBusy, lastErr)
}
