package llmdispatch

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/llmdispatch/genai/llm"
	"github.com/viant/llmdispatch/internal/log"
)

// DispatchCmd sends one prompt and prints the raw text or recovered records.
type DispatchCmd struct {
	Model       string  `short:"m" long:"model" description:"model identifier" required:"true"`
	Type        string  `short:"t" long:"type" description:"inference type: aws_bedrock, CAII, openai, gemini, openai_compatible" default:"aws_bedrock"`
	Endpoint    string  `short:"e" long:"endpoint" description:"endpoint URL (CAII, openai_compatible)"`
	Prompt      string  `short:"p" long:"prompt" description:"prompt text"`
	PromptURL   string  `long:"prompt-url" description:"read the prompt from a file or afs URL"`
	Raw         bool    `short:"r" long:"raw" description:"print model output verbatim"`
	Temperature float64 `long:"temperature" default:"0"`
	TopP        float64 `long:"top-p" default:"1"`
	MinP        float64 `long:"min-p" default:"0"`
	TopK        int     `long:"top-k" default:"150"`
	MaxTokens   int     `long:"max-tokens" default:"8192"`
	Log         string  `long:"log" description:"append dispatch events (JSON lines) to this file"`
	Usage       bool    `long:"usage" description:"print token usage after the result"`
}

func (c *DispatchCmd) Execute(_ []string) error {
	ctx := context.Background()
	request, err := c.request(ctx)
	if err != nil {
		return err
	}
	if c.Log != "" {
		file, err := os.OpenFile(c.Log, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer file.Close()
		stop := log.FileSink(file)
		defer stop()
	}
	env, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	result, err := env.service.Dispatch(ctx, request)
	if err != nil {
		return err
	}
	if result.Raw {
		_, err = fmt.Fprintln(output, result.Text)
	} else {
		err = printJSON(result.Records)
	}
	if err != nil || !c.Usage {
		return err
	}
	return printJSON(env.usage.Snapshot())
}

func (c *DispatchCmd) request(ctx context.Context) (*llm.Request, error) {
	inferenceType, err := llm.ParseInferenceType(c.Type)
	if err != nil {
		return nil, err
	}
	prompt := c.Prompt
	if c.PromptURL != "" {
		data, err := afs.New().DownloadWithURL(ctx, c.PromptURL)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %v: %w", c.PromptURL, err)
		}
		prompt = string(data)
	}
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required: use --prompt or --prompt-url")
	}
	params, err := llm.NewParameters(
		llm.WithTemperature(c.Temperature),
		llm.WithTopP(c.TopP),
		llm.WithMinP(c.MinP),
		llm.WithTopK(c.TopK),
		llm.WithMaxTokens(c.MaxTokens))
	if err != nil {
		return nil, err
	}
	return &llm.Request{
		Model:      c.Model,
		Type:       inferenceType,
		Endpoint:   c.Endpoint,
		Prompt:     prompt,
		Parameters: params,
		RawText:    c.Raw,
	}, nil
}
