// Package caii builds adapters for hosted cluster inference endpoints, which
// expose an OpenAI compatible chat API behind a cluster issued bearer token.
package caii

import (
	"context"
	"time"

	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
	"github.com/viant/llmdispatch/genai/llm/provider/openai"
)

const (
	// Provider is the inference type tag of hosted cluster inference.
	Provider = "CAII"

	ProbeTimeout = 3 * time.Second
)

// NewClient creates an adapter for endpoint. An explicit token wins over the
// token source; otherwise the source is checked before any network call and
// consulted again on every invocation so refreshed tokens are picked up.
func NewClient(ctx context.Context, model, endpoint, token string, source *TokenSource, options ...openai.ClientOption) (*openai.Client, error) {
	if endpoint == "" {
		return nil, llm.NewError(llm.KindUnsupported, "endpoint is required").WithProvider(Provider).WithModel(model)
	}
	ret := []openai.ClientOption{
		openai.WithBaseURL(basecfg.TrimEndpoint(endpoint)),
		openai.WithProvider(Provider),
		openai.WithModelsProbe(),
		openai.WithProbeTimeout(ProbeTimeout),
	}
	if token == "" {
		if source == nil {
			source = NewTokenSource("")
		}
		if _, err := source.Token(ctx); err != nil {
			return nil, llm.AsError(err).WithModel(model)
		}
		ret = append(ret, openai.WithAPIKeyProvider(source.Token))
	}
	return openai.NewClient(token, model, append(ret, options...)...), nil
}
