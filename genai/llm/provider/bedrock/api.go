package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// probeMaxTokens keeps health checks cheap.
const probeMaxTokens = 10

// Invoke sends prompt as a single user turn through the converse API.
func (c *Client) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	if c.Model == "" {
		return "", llm.NewError(llm.KindInvalidModel, "model is required").WithProvider(Provider)
	}
	api := c.runtime()
	if api == nil {
		return "", llm.NewError(llm.KindTransientNetwork, "runtime client is not initialised").WithProvider(Provider).WithModel(c.Model)
	}
	output, err := api.Converse(ctx, c.ToInput(prompt, params))
	if err != nil {
		return "", Classify(c.Model, err)
	}
	text, err := ResponseText(output)
	if err != nil {
		return "", llm.Wrap(llm.KindMalformed, err).WithProvider(Provider).WithModel(c.Model)
	}
	if usage := ToUsage(output); usage != nil {
		c.UsageListener.OnUsage(c.Model, usage)
	}
	return text, nil
}

// Probe performs a minimal generation bounded by the probe timeout.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
	defer cancel()
	params := llm.Parameters{Temperature: 0, TopP: 1, TopK: 1, MaxTokens: probeMaxTokens}
	_, err := c.Invoke(ctx, basecfg.ProbePrompt, params)
	return err == nil
}

// ToInput converts a prompt and parameters into a converse request; only
// families accepting top_k receive it as an additional model request field.
func (c *Client) ToInput(prompt string, params llm.Parameters) *bedrockruntime.ConverseInput {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.Model),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:     aws.Int32(int32(MaxTokens(c.Model, params.MaxTokens))),
			Temperature:   aws.Float32(float32(params.Temperature)),
			TopP:          aws.Float32(float32(params.TopP)),
			StopSequences: c.StopSequences,
		},
	}
	if FamilyOf(c.Model).AcceptsTopK() && params.TopK > 0 {
		input.AdditionalModelRequestFields = document.NewLazyDocument(map[string]interface{}{"top_k": params.TopK})
	}
	return input
}

// ResponseText extracts the first text block of the assistant message.
func ResponseText(output *bedrockruntime.ConverseOutput) (string, error) {
	if output == nil {
		return "", fmt.Errorf("empty converse output")
	}
	message, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected converse output %T", output.Output)
	}
	for _, block := range message.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("converse output has no text content")
}

func ToUsage(output *bedrockruntime.ConverseOutput) *llm.Usage {
	if output == nil || output.Usage == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     int(aws.ToInt32(output.Usage.InputTokens)),
		CompletionTokens: int(aws.ToInt32(output.Usage.OutputTokens)),
		TotalTokens:      int(aws.ToInt32(output.Usage.TotalTokens)),
	}
}
