package hosting

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/grokify/versionrewind/pkg/model"
)

// newBackOff returns the exponential policy applied between attempts.
func (c *GitHubClient) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return b
}

// do runs fn under the request timeout, retrying rate-limited and
// transient failures with exponential backoff. Errors are returned as
// *model.Error, except cancellation of ctx which is returned as ctx.Err().
func (c *GitHubClient) do(ctx context.Context, op string, repo model.RepoRef, fn func(context.Context) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.cfg.MaxRetries)),
		ctx,
	)

	return backoff.Retry(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			return backoff.Permanent(model.NewError(model.KindRateLimited, op, repo, err))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}

		typed := classify(op, repo, err)
		if typed.Retryable() {
			return typed
		}
		return backoff.Permanent(typed)
	}, policy)
}

func newLimiter(cfg Config) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, cfg.Burst)
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}
