package llmdispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/llmdispatch/genai/dispatch"
	"github.com/viant/llmdispatch/genai/endpoint"
	"github.com/viant/llmdispatch/genai/llm"
	"github.com/viant/llmdispatch/genai/llm/provider"
	"github.com/viant/llmdispatch/genai/usage"
	"github.com/viant/llmdispatch/internal/config"
)

var (
	cfgMu   sync.RWMutex
	cfgPath string
)

// called from CLI after flag parsing
func setConfigPath(p string) {
	cfgMu.Lock()
	cfgPath = p
	cfgMu.Unlock()
}

// environment holds components built from the configuration.
type environment struct {
	config   *config.Config
	registry *endpoint.Registry
	factory  *provider.Factory
	service  *dispatch.Service
	usage    *usage.Aggregator
}

func loadEnvironment(ctx context.Context) (*environment, error) {
	cfgMu.RLock()
	path := cfgPath
	cfgMu.RUnlock()

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	ret := &environment{config: cfg, registry: endpoint.New(cfg.EndpointsURL), usage: &usage.Aggregator{}}
	providerOptions := cfg.ProviderOptions()
	providerOptions.UsageListener = ret.usage.OnUsage
	ret.factory = provider.New(
		provider.WithOptions(providerOptions),
		provider.WithCredentials(cfg.Credentials()),
		provider.WithRegistry(ret.registry))
	options := []dispatch.Option{
		dispatch.WithConcurrency(cfg.Concurrency),
		dispatch.WithRetryPolicy(llm.InferenceBedrock, cfg.RetryPolicy()),
	}
	for tag, limit := range cfg.RateLimits {
		inferenceType, err := llm.ParseInferenceType(tag)
		if err != nil {
			return nil, err
		}
		options = append(options, dispatch.WithRateLimit(inferenceType, limit, 1))
	}
	ret.service = dispatch.New(ret.factory, options...)
	return ret, nil
}

func printJSON(value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, string(data))
	return err
}
