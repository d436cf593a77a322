package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
)

type retryCaller struct {
	next   Caller
	policy resilience.Policy
}

// WithRetry retries failed calls on an exponential schedule. Unless the
// policy says otherwise, every error except cancellation is retried.
func WithRetry(next Caller, p resilience.Policy) Caller {
	if p.Retryable == nil {
		p.Retryable = resilience.UnlessCanceled
	}
	if p.OnRetry == nil {
		p.OnRetry = resilience.RetryLogger(next.Name(), "generate")
	}
	return &retryCaller{next: next, policy: p}
}

func (c *retryCaller) Name() string { return c.next.Name() }

func (c *retryCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	return resilience.DoVal(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.next.Generate(ctx, msgs)
	})
}

type breakerCaller struct {
	next    Caller
	breaker *resilience.Breaker
}

// WithBreaker rejects calls with resilience.ErrBreakerOpen once the wrapped
// caller has failed too many times in a row. Apply it outside WithRetry so
// a failure means an exhausted retry schedule.
func WithBreaker(next Caller, b *resilience.Breaker) Caller {
	return &breakerCaller{next: next, breaker: b}
}

func (c *breakerCaller) Name() string { return c.next.Name() }

func (c *breakerCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	return resilience.Call(ctx, c.breaker, func(ctx context.Context) (string, error) {
		return c.next.Generate(ctx, msgs)
	})
}

type rateLimitedCaller struct {
	next    Caller
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to at most rps per second. A non-positive rps
// returns next unchanged.
func WithRateLimit(next Caller, rps float64) Caller {
	if rps <= 0 {
		return next
	}
	return &rateLimitedCaller{next: next, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (c *rateLimitedCaller) Name() string { return c.next.Name() }

func (c *rateLimitedCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limit wait")
	}
	return c.next.Generate(ctx, msgs)
}
