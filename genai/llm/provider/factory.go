package provider

import (
	"context"
	"fmt"

	"github.com/viant/llmdispatch/genai/credential"
	"github.com/viant/llmdispatch/genai/endpoint"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
	"github.com/viant/llmdispatch/genai/llm/provider/bedrock"
	"github.com/viant/llmdispatch/genai/llm/provider/caii"
	"github.com/viant/llmdispatch/genai/llm/provider/gemini"
	"github.com/viant/llmdispatch/genai/llm/provider/openai"
)

// Factory maps an inference type to exactly one adapter implementation.
// Credentials resolve as per call override, then registry entry, then ambient source.
type Factory struct {
	options      Options
	credentials  credential.Source
	registry     Registry
	tokens       *caii.TokenSource
	constructors map[llm.InferenceType]Constructor
}

type Option func(*Factory)

// WithCredentials sets the ambient credential source, environment by default.
func WithCredentials(source credential.Source) Option {
	return func(f *Factory) {
		if source != nil {
			f.credentials = source
		}
	}
}

// WithRegistry sets the custom endpoint registry.
func WithRegistry(registry Registry) Option {
	return func(f *Factory) { f.registry = registry }
}

func WithOptions(options Options) Option {
	return func(f *Factory) { f.options = options }
}

// New creates a factory.
func New(opts ...Option) *Factory {
	ret := &Factory{credentials: credential.Env{}}
	for _, opt := range opts {
		opt(ret)
	}
	ret.tokens = caii.NewTokenSource(ret.options.TokenFile)
	ret.constructors = map[llm.InferenceType]Constructor{
		llm.InferenceBedrock:          newBedrock,
		llm.InferenceCAII:             newCAII,
		llm.InferenceOpenAI:           newOpenAI,
		llm.InferenceOpenAICompatible: newOpenAICompatible,
		llm.InferenceGemini:           newGemini,
	}
	return ret
}

// CreateAdapter builds the adapter for request.
func (f *Factory) CreateAdapter(ctx context.Context, request *llm.Request) (llm.Adapter, error) {
	if request == nil {
		return nil, llm.NewError(llm.KindUnsupported, "request was nil")
	}
	constructor, ok := f.constructors[request.Type]
	if !ok {
		return nil, llm.NewError(llm.KindUnsupported, fmt.Sprintf("unsupported inference type: %v", request.Type)).
			WithProvider(request.Type.String()).WithModel(request.Model)
	}
	override, err := f.override(ctx, request)
	if err != nil {
		return nil, err
	}
	adapter, err := constructor(ctx, f, request, override)
	if err != nil {
		return nil, llm.AsError(err).WithProvider(request.Type.String()).WithModel(request.Model)
	}
	return adapter, nil
}

func (f *Factory) override(ctx context.Context, request *llm.Request) (*endpoint.Endpoint, error) {
	if f.registry == nil {
		return nil, nil
	}
	ret, err := f.registry.Get(ctx, request.Model, request.Type.ProviderType())
	if err != nil {
		return nil, llm.Wrap(llm.KindHandler, err).WithProvider(request.Type.String()).WithModel(request.Model)
	}
	return ret, nil
}

// secret resolves key with override > registry > ambient precedence.
func (f *Factory) secret(ctx context.Context, key, override, registered string) (string, error) {
	chain := credential.Chain{credential.Static{key: override}, credential.Static{key: registered}, f.credentials}
	return credential.Require(ctx, chain, key)
}

func endpointURL(request *llm.Request, override *endpoint.Endpoint) string {
	if request.Endpoint != "" {
		return request.Endpoint
	}
	if override != nil {
		return override.URL
	}
	return ""
}

func newBedrock(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error) {
	options := []bedrock.ClientOption{
		bedrock.WithRegion(f.options.Region),
		bedrock.WithTimeouts(f.options.ConnectTimeout, f.options.ReadTimeout),
		bedrock.WithProbeTimeout(f.options.ProbeTimeout),
		bedrock.WithUsageListener(f.options.UsageListener),
	}
	if override != nil {
		options = append(options,
			bedrock.WithEndpoint(override.URL),
			bedrock.WithStaticCredentials(override.AWSAccessKeyID, override.AWSSecretAccessKey, ""))
		if override.AWSRegion != "" {
			options = append(options, bedrock.WithRegion(override.AWSRegion))
		}
	} else if f.options.Region == "" {
		if region, ok, _ := f.credentials.Lookup(ctx, credential.KeyAWSRegion); ok {
			options = append(options, bedrock.WithRegion(region))
		}
	}
	if f.options.BedrockBuilder != nil {
		options = append(options, bedrock.WithBuilder(f.options.BedrockBuilder))
	}
	return bedrock.NewClient(ctx, request.Model, options...)
}

func newCAII(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error) {
	token := request.APIKey
	if token == "" && override != nil {
		token = override.CDPToken
	}
	if token == "" {
		if value, ok, _ := f.credentials.Lookup(ctx, credential.KeyCDPToken); ok {
			token = value
		}
	}
	// hosted cluster probes keep their own shorter timeout
	return caii.NewClient(ctx, request.Model, endpointURL(request, override), token, f.tokens,
		openai.WithTimeouts(f.options.ConnectTimeout, f.options.ReadTimeout),
		openai.WithUsageListener(f.options.UsageListener))
}

func newOpenAI(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error) {
	registered := ""
	if override != nil {
		registered = override.APIKey
	}
	key, err := f.secret(ctx, credential.KeyOpenAI, request.APIKey, registered)
	if err != nil {
		return nil, err
	}
	options := append(f.openAIOptions(), openai.WithBaseURL(f.options.OpenAIBaseURL))
	return openai.NewClient(key, request.Model, options...), nil
}

func newOpenAICompatible(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error) {
	URL := endpointURL(request, override)
	if URL == "" {
		return nil, llm.NewError(llm.KindUnsupported, "endpoint is required")
	}
	registered := ""
	if override != nil {
		registered = override.APIKey
	}
	key, err := f.secret(ctx, credential.KeyOpenAICompatible, request.APIKey, registered)
	if err != nil {
		return nil, err
	}
	options := append(f.openAIOptions(),
		openai.WithBaseURL(basecfg.TrimEndpoint(URL)),
		openai.WithProvider(llm.InferenceOpenAICompatible.String()))
	return openai.NewClient(key, request.Model, options...), nil
}

func newGemini(ctx context.Context, f *Factory, request *llm.Request, override *endpoint.Endpoint) (llm.Adapter, error) {
	registered := ""
	if override != nil {
		registered = override.APIKey
	}
	key, err := f.secret(ctx, credential.KeyGemini, request.APIKey, registered)
	if err != nil {
		return nil, err
	}
	return gemini.NewClient(key, request.Model,
		gemini.WithBaseURL(f.options.GeminiBaseURL),
		gemini.WithTimeouts(f.options.ConnectTimeout, f.options.ReadTimeout),
		gemini.WithProbeTimeout(f.options.ProbeTimeout),
		gemini.WithUsageListener(f.options.UsageListener)), nil
}

func (f *Factory) openAIOptions() []openai.ClientOption {
	return []openai.ClientOption{
		openai.WithTimeouts(f.options.ConnectTimeout, f.options.ReadTimeout),
		openai.WithProbeTimeout(f.options.ProbeTimeout),
		openai.WithUsageListener(f.options.UsageListener),
	}
}
