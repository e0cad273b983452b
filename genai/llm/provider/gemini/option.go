package gemini

import (
	"net/http"
	"time"

	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// ClientOption mutates a Gemini Client instance.
type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { basecfg.WithBaseURL(baseURL)(&c.Config) }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { basecfg.WithHTTPClient(httpClient)(&c.Config) }
}

// WithVersion selects the API version used to build the default base URL.
func WithVersion(version string) ClientOption {
	return func(c *Client) { c.Version = version }
}

func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithTimeouts(connect, read)(&c.Config) }
}

func WithProbeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithProbeTimeout(timeout)(&c.Config) }
}

func WithUsageListener(l basecfg.UsageListener) ClientOption {
	return func(c *Client) { c.Config.UsageListener = l }
}
