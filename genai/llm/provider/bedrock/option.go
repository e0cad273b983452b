package bedrock

import (
	"time"

	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

func WithRegion(region string) ClientOption {
	return func(c *Client) { c.Region = region }
}

// WithEndpoint overrides the regional service address.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.Endpoint = endpoint }
}

// WithCredentialsURL resolves aws credentials through a scy secret resource.
func WithCredentialsURL(credentialsURL string) ClientOption {
	return func(c *Client) { c.CredentialsURL = credentialsURL }
}

// WithStaticCredentials uses explicit keys instead of the ambient credential chain.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) ClientOption {
	return func(c *Client) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

func WithStopSequences(sequences ...string) ClientOption {
	return func(c *Client) { c.StopSequences = sequences }
}

// WithBuilder replaces runtime client construction, mainly for tests.
func WithBuilder(builder Builder) ClientOption {
	return func(c *Client) { c.builder = builder }
}

func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithTimeouts(connect, read)(&c.Config) }
}

func WithProbeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { basecfg.WithProbeTimeout(timeout)(&c.Config) }
}

// WithUsageListener registers a callback to receive token usage information.
func WithUsageListener(l basecfg.UsageListener) ClientOption {
	return func(c *Client) { c.UsageListener = l }
}
