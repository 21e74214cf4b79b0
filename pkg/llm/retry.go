package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RetryingClient wraps a StructuredClient with client-side throttling and
// bounded exponential backoff. Only TransientError triggers a retry;
// IncompleteError and RefusedError pass straight through per §4.4 — a
// retry on those would look like "trying until the model says what we
// want," which is exactly the strictness invariant P8 forbids.
type RetryingClient struct {
	next    StructuredClient
	limiter *rate.Limiter
	policy  BackoffPolicy
	attempt int // monotonically incrementing request counter, for jitter seeding
}

// NewRetryingClient wraps next with a token-bucket limiter (rps, burst)
// and the given backoff policy.
func NewRetryingClient(next StructuredClient, rps float64, burst int, policy BackoffPolicy) *RetryingClient {
	return &RetryingClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		policy:  policy,
	}
}

func (c *RetryingClient) CallStructured(ctx context.Context, req CallRequest) (json.RawMessage, CompletionStatus, error) {
	var lastErr error
	for attemptIdx := 0; attemptIdx < c.policy.MaxAttempts; attemptIdx++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, Incomplete, fmt.Errorf("llm: rate limiter: %w", err)
		}

		payload, status, err := c.next.CallStructured(ctx, req)
		if err == nil {
			return payload, status, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return nil, status, err
		}
		lastErr = err

		c.attempt++
		delay := ComputeBackoff(BackoffParams{Model: req.Model, RequestID: fmt.Sprintf("%d", c.attempt), AttemptIndex: attemptIdx}, c.policy)
		if transient.RetryAfter != nil {
			delay = time.Duration(*transient.RetryAfter) * time.Second
		}

		select {
		case <-ctx.Done():
			return nil, Incomplete, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, Incomplete, fmt.Errorf("llm: exhausted %d attempts: %w", c.policy.MaxAttempts, lastErr)
}
