package llmdispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/llmdispatch/genai/endpoint"
	"github.com/viant/llmdispatch/genai/redact"
)

// EndpointCmd groups custom endpoint registry commands.
type EndpointCmd struct {
	Add    EndpointAddCmd    `command:"add" description:"Register a custom endpoint"`
	List   EndpointListCmd   `command:"list" description:"List custom endpoints"`
	Delete EndpointDeleteCmd `command:"delete" description:"Delete a custom endpoint"`
	Stats  EndpointStatsCmd  `command:"stats" description:"Summarize custom endpoints"`
}

type EndpointAddCmd struct {
	Model              string `short:"m" long:"model" required:"true"`
	Provider           string `short:"t" long:"provider" description:"caii, bedrock, openai, openai_compatible, gemini" required:"true"`
	DisplayName        string `short:"n" long:"name"`
	URL                string `short:"e" long:"endpoint"`
	CDPToken           string `long:"cdp-token"`
	APIKey             string `long:"api-key"`
	AWSAccessKeyID     string `long:"aws-access-key-id"`
	AWSSecretAccessKey string `long:"aws-secret-access-key"`
	AWSRegion          string `long:"aws-region"`
}

func (c *EndpointAddCmd) Execute(_ []string) error {
	ctx := context.Background()
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	key, err := env.registry.Add(ctx, &endpoint.Endpoint{
		ModelID:            c.Model,
		ProviderType:       c.Provider,
		DisplayName:        c.DisplayName,
		URL:                c.URL,
		CDPToken:           c.CDPToken,
		APIKey:             c.APIKey,
		AWSAccessKeyID:     c.AWSAccessKeyID,
		AWSSecretAccessKey: c.AWSSecretAccessKey,
		AWSRegion:          c.AWSRegion,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(output, key)
	return err
}

type EndpointListCmd struct {
	Provider string `short:"t" long:"provider" description:"filter by provider type"`
}

func (c *EndpointListCmd) Execute(_ []string) error {
	ctx := context.Background()
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	var entries []*endpoint.Endpoint
	if c.Provider != "" {
		entries, err = env.registry.ListByProvider(ctx, c.Provider)
	} else {
		entries, err = env.registry.List(ctx)
	}
	if err != nil {
		return err
	}
	data, err := redact.ScrubJSON(entries)
	if err != nil {
		return err
	}
	var masked interface{}
	if err = json.Unmarshal(data, &masked); err != nil {
		return err
	}
	return printJSON(masked)
}

type EndpointDeleteCmd struct {
	Model    string `short:"m" long:"model" required:"true"`
	Provider string `short:"t" long:"provider" required:"true"`
}

func (c *EndpointDeleteCmd) Execute(_ []string) error {
	ctx := context.Background()
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	deleted, err := env.registry.Delete(ctx, c.Model, c.Provider)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("endpoint %v not found", endpoint.Key(c.Model, c.Provider))
	}
	_, err = fmt.Fprintln(output, "deleted", endpoint.Key(c.Model, c.Provider))
	return err
}

type EndpointStatsCmd struct{}

func (c *EndpointStatsCmd) Execute(_ []string) error {
	ctx := context.Background()
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	stats, err := env.registry.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}
