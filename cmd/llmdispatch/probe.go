package llmdispatch

import (
	"context"

	"github.com/viant/llmdispatch/genai/catalog"
	"github.com/viant/llmdispatch/genai/llm"
)

// ProbeCmd probes models of one inference type. Without --model it probes the
// curated list of the type plus registered custom endpoints.
type ProbeCmd struct {
	Type        string   `short:"t" long:"type" description:"inference type" default:"aws_bedrock"`
	Endpoint    string   `short:"e" long:"endpoint" description:"endpoint URL (CAII, openai_compatible)"`
	Models      []string `short:"m" long:"model" description:"model to probe (repeatable)"`
	Concurrency int      `short:"c" long:"concurrency" description:"probes in flight (default per type)"`
}

func (c *ProbeCmd) Execute(_ []string) error {
	ctx := context.Background()
	inferenceType, err := llm.ParseInferenceType(c.Type)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	targets := catalog.Targets(inferenceType, c.Endpoint, c.Models...)
	if len(c.Models) == 0 {
		targets = catalog.Targets(inferenceType, c.Endpoint, catalog.Models(inferenceType)...)
		registered, err := env.registry.ListByProvider(ctx, inferenceType.ProviderType())
		if err != nil {
			return err
		}
		for _, entry := range registered {
			targets = append(targets, catalog.Target{Model: entry.ModelID, Type: inferenceType, Endpoint: entry.URL})
		}
	}
	concurrency := c.Concurrency
	if concurrency == 0 {
		concurrency = catalog.ConcurrencyFor(inferenceType)
	}
	return printJSON(catalog.Sweep(ctx, env.service, targets, concurrency))
}
