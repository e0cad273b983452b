package openai

import (
	"context"
	"errors"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// Invoke sends prompt as a single user message and returns the first choice content.
func (c *Client) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	if c.Model == "" {
		return "", c.newError(llm.KindInvalidModel, "model is required")
	}
	key, err := c.apiKey(ctx)
	if err != nil {
		return "", err
	}
	completion, err := c.client().Chat.Completions.New(ctx, ToRequest(c.Model, prompt, params), option.WithAPIKey(key))
	if err != nil {
		return "", c.classify(err)
	}
	if len(completion.Choices) == 0 {
		return "", c.newError(llm.KindMalformed, "completion has no choices")
	}
	c.UsageListener.OnUsage(c.Model, ToUsage(completion))
	return completion.Choices[0].Message.Content, nil
}

// Probe reports whether the endpoint answers within the probe timeout.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
	defer cancel()
	if c.ModelsProbe {
		key, err := c.apiKey(ctx)
		if err != nil {
			return false
		}
		_, err = c.client().Models.List(ctx, option.WithAPIKey(key))
		return err == nil
	}
	params := llm.Parameters{TopP: 1, MaxTokens: c.ProbeMaxTokens}
	_, err := c.Invoke(ctx, basecfg.ProbePrompt, params)
	return err == nil
}

// ToRequest builds chat completion parameters; top_k and min_p have no
// counterpart in the chat completion API and are not sent.
func ToRequest(model, prompt string, params llm.Parameters) sdk.ChatCompletionNewParams {
	ret := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(model),
		Messages:    []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(prompt)},
		Temperature: sdk.Float(params.Temperature),
		TopP:        sdk.Float(params.TopP),
		MaxTokens:   sdk.Int(int64(params.OutputTokens())),
	}
	return ret
}

func ToUsage(completion *sdk.ChatCompletion) *llm.Usage {
	if completion == nil || completion.Usage.TotalTokens == 0 {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
}

func (c *Client) classify(err error) *llm.Error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = err.Error()
		}
		kind := basecfg.ClassifyStatus(apiErr.StatusCode, message+" "+apiErr.Code)
		return llm.Wrap(kind, err).WithProvider(c.Provider).WithModel(c.Model).WithStatus(apiErr.StatusCode)
	}
	return basecfg.Classify(c.Provider, c.Model, 0, err)
}
