package remoteocr

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// retryBackoffBase is the per-attempt backoff multiplier: the wait before
// attempt n+1 is n * retryBackoffBase. Variable so tests can shrink it.
var retryBackoffBase = 2 * time.Second

// attemptFunc performs one transport attempt.
type attemptFunc func(ctx context.Context, attempt int) (*rawResponse, *Failure)

// doWithRetry runs fn up to RetryCount times, backing off between attempts
// when the failure is retryable. A RetryCount of zero or less means exactly
// one attempt. Attempts are strictly sequential; the backoff sleep is the
// only suspension point and aborts when the context is canceled.
func (g *Gateway) doWithRetry(ctx context.Context, fn attemptFunc) (*rawResponse, *Failure) {
	maxAttempts := g.cfg.RetryCount
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last *Failure
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, fail := fn(ctx, attempt)
		if fail == nil {
			return resp, nil
		}
		last = fail

		if !fail.Kind.Retryable() {
			return nil, fail
		}
		if attempt == maxAttempts {
			last = &Failure{
				Backend: fail.Backend,
				Kind:    fail.Kind,
				Status:  fail.Status,
				Message: fmt.Sprintf("%s. All %d attempts failed.", fail.Message, attempt),
			}
			break
		}

		wait := time.Duration(attempt) * retryBackoffBase
		log.Info().
			Str("backend", string(g.cfg.Engine)).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("wait", wait).
			Msg("Retrying OCR request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, newFailure(g.cfg.Engine, KindTimeout,
				"canceled while waiting to retry: %v", ctx.Err())
		case <-timer.C:
		}
	}

	return nil, last
}
