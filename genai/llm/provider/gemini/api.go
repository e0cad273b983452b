package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// Invoke calls generateContent and returns the text of the first candidate.
func (c *Client) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	if c.APIKey == "" {
		return "", c.newError(llm.KindCredential, "API key is required")
	}
	if c.Model == "" {
		return "", c.newError(llm.KindInvalidModel, "model is required")
	}
	data, err := json.Marshal(ToRequest(prompt, params))
	if err != nil {
		return "", llm.Wrap(llm.KindHandler, err).WithProvider(Provider).WithModel(c.Model)
	}
	apiURL := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(c.BaseURL, "/"), c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return "", llm.Wrap(llm.KindHandler, err).WithProvider(Provider).WithModel(c.Model)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", basecfg.Classify(Provider, c.Model, 0, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", basecfg.Classify(Provider, c.Model, 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = string(body)
		}
		kind := basecfg.ClassifyStatus(resp.StatusCode, message)
		return "", llm.NewError(kind, message).WithProvider(Provider).WithModel(c.Model).WithStatus(resp.StatusCode)
	}
	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !text.Exists() {
		return "", c.newError(llm.KindMalformed, "response has no candidate text")
	}
	c.UsageListener.OnUsage(c.Model, ToUsage(body))
	return text.String(), nil
}

// Probe performs a minimal generation bounded by the probe timeout.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.ProbeTimeout)
	defer cancel()
	_, err := c.Invoke(ctx, basecfg.ProbePrompt, llm.Parameters{TopP: 1, MaxTokens: defaultProbeMaxTokens})
	return err == nil
}

// Rebuild replaces an owned HTTP client so the next attempt dials fresh connections.
func (c *Client) Rebuild(ctx context.Context) error {
	if !c.ownsHTTPClient {
		return nil
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if transport, ok := c.HTTPClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	c.HTTPClient = basecfg.NewHTTPClient(c.ConnectTimeout, c.ReadTimeout)
	return nil
}

func (c *Client) httpClient() *http.Client {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.HTTPClient
}

// ToRequest builds a single turn generateContent request.
func ToRequest(prompt string, params llm.Parameters) *Request {
	temperature, topP := params.Temperature, params.TopP
	return &Request{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: params.OutputTokens(),
			TopP:            &topP,
			TopK:            params.TopK,
		},
	}
}

func ToUsage(body []byte) *llm.Usage {
	metadata := gjson.GetBytes(body, "usageMetadata")
	if !metadata.Exists() {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     int(metadata.Get("promptTokenCount").Int()),
		CompletionTokens: int(metadata.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(metadata.Get("totalTokenCount").Int()),
	}
}

func (c *Client) newError(kind llm.Kind, message string) *llm.Error {
	return llm.NewError(kind, message).WithProvider(Provider).WithModel(c.Model)
}
