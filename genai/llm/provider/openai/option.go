package openai

import (
	"net/http"
	"time"

	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// ClientOption mutates an OpenAI Client instance.
type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { basecfg.WithBaseURL(baseURL)(&c.Config) }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { basecfg.WithHTTPClient(httpClient)(&c.Config) }
}

func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithTimeouts(connect, read)(&c.Config) }
}

func WithProbeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithProbeTimeout(timeout)(&c.Config) }
}

// WithUsageListener assigns token usage listener to the client.
func WithUsageListener(l basecfg.UsageListener) ClientOption {
	return func(c *Client) { c.Config.UsageListener = l }
}

// WithAPIKeyProvider configures a resolver used to obtain an API key at call time.
func WithAPIKeyProvider(provider APIKeyProvider) ClientOption {
	return func(c *Client) { c.APIKeyProvider = provider }
}

// WithProvider sets the provider label used in errors.
func WithProvider(provider string) ClientOption {
	return func(c *Client) {
		if provider != "" {
			c.Provider = provider
		}
	}
}

// WithProbeMaxTokens sets the token budget of the health probe.
func WithProbeMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) {
		if maxTokens > 0 {
			c.ProbeMaxTokens = maxTokens
		}
	}
}

// WithModelsProbe makes Probe list models instead of generating.
func WithModelsProbe() ClientOption {
	return func(c *Client) { c.ModelsProbe = true }
}
