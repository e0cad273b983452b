package dispatch

import (
	"context"

	"github.com/viant/llmdispatch/genai/llm"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// gated admits one adapter call at a time per semaphore slot. Retry sleeps
// happen outside the gate so a waiting call does not hold a slot.
type gated struct {
	llm.Adapter
	gate    *semaphore.Weighted
	limiter *rate.Limiter
}

func (g *gated) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", cancelled(ctx, err)
			}
			return "", llm.Wrap(llm.KindRateLimited, err)
		}
	}
	if err := g.gate.Acquire(ctx, 1); err != nil {
		return "", cancelled(ctx, err)
	}
	defer g.gate.Release(1)
	return g.Adapter.Invoke(ctx, prompt, params)
}

// cancelled reports a caller that gave up while waiting for admission; it is
// not retried and does not rebuild the adapter.
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return llm.Wrap(llm.KindHandler, err)
}

// Rebuild forwards to the wrapped adapter so connection failures still rebuild it.
func (g *gated) Rebuild(ctx context.Context) error {
	if rebuilder, ok := g.Adapter.(llm.Rebuilder); ok {
		return rebuilder.Rebuild(ctx)
	}
	return nil
}
