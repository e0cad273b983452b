package provider

import (
	"context"

	"github.com/viant/llmdispatch/genai/endpoint"
	"github.com/viant/llmdispatch/genai/llm"
)

// Registry looks up custom endpoint overrides by model and provider type.
type Registry interface {
	Get(ctx context.Context, modelID, providerType string) (*endpoint.Endpoint, error)
}

// Constructor builds the adapter of one inference type.
type Constructor func(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error)
