package llm

import "context"

// Adapter is one provider specific implementation of the invoke/probe contract.
// Invoke returns raw model text or a classified *Error, never a provider error.
type Adapter interface {
	Invoke(ctx context.Context, prompt string, params Parameters) (string, error)
	Prober
}

// Prober reports reachability of a model; it never returns an error.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Rebuilder is implemented by adapters that can recreate their network client
// after a connection class failure.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// AdapterFunc adapts a function to Adapter; Probe always reports healthy.
type AdapterFunc func(ctx context.Context, prompt string, params Parameters) (string, error)

func (f AdapterFunc) Invoke(ctx context.Context, prompt string, params Parameters) (string, error) {
	return f(ctx, prompt, params)
}

func (f AdapterFunc) Probe(ctx context.Context) bool {
	return true
}
