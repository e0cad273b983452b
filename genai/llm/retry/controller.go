package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/llmdispatch/genai/llm"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Attempt describes one finished adapter call.
type Attempt struct {
	Number     int
	Parameters llm.Parameters
	Err        error
	// Retry is set when another attempt follows after Delay.
	Retry bool
	Delay time.Duration
}

// Observer is notified after every attempt.
type Observer func(attempt Attempt)

// Controller runs the Attempting -> Success | Retrying -> Attempting | Exhausted state machine.
type Controller struct {
	policy   Policy
	sleep    SleepFunc
	logger   *slog.Logger
	observer Observer
}

type Option func(*Controller)

func WithSleep(sleep SleepFunc) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Controller) { c.observer = observer }
}

// New creates a controller for policy.
func New(policy Policy, options ...Option) *Controller {
	ret := &Controller{policy: policy, sleep: Sleep, logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Policy returns the controller policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Invoke calls adapter until it succeeds, fails with a non retryable error or
// the retry budget is exhausted. The returned error is always an *llm.Error;
// on exhaustion it is the last classified error.
func (c *Controller) Invoke(ctx context.Context, adapter llm.Adapter, prompt string, params llm.Parameters) (string, error) {
	current := params
	schedule := c.policy.backOff()
	for retry := 0; ; retry++ {
		text, err := adapter.Invoke(ctx, prompt, current)
		attempt := Attempt{Number: retry + 1, Parameters: current, Err: err}
		if err == nil {
			c.notify(attempt)
			return text, nil
		}
		classified := llm.AsError(err)
		if !classified.Kind.Retryable() || retry >= c.policy.MaxRetries {
			c.notify(attempt)
			if classified.Kind.Retryable() {
				c.logger.Warn("retry budget exhausted", "attempt", attempt.Number, "kind", classified.Kind, "error", classified.Message)
			}
			return "", classified
		}
		attempt.Retry, attempt.Delay = true, schedule.NextBackOff()
		c.notify(attempt)
		c.logger.Info("retrying", "attempt", attempt.Number, "kind", classified.Kind, "delay", attempt.Delay)

		if classified.Kind == llm.KindTransientNetwork {
			if rebuilder, ok := adapter.(llm.Rebuilder); ok {
				if rErr := rebuilder.Rebuild(ctx); rErr != nil {
					c.logger.Warn("failed to rebuild client", "error", rErr)
				}
			}
		}
		if err := c.sleep(ctx, attempt.Delay); err != nil {
			return "", classified
		}
		if c.policy.Transform != nil {
			current = c.policy.Transform(retry, classified, current)
		}
	}
}

func (c *Controller) notify(attempt Attempt) {
	if c.observer != nil {
		c.observer(attempt)
	}
}

// Sleep blocks the calling goroutine only.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
