package base

import (
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = time.Hour
	DefaultProbeTimeout   = 5 * time.Second

	// ProbePrompt is sent by health probes with a minimal token budget.
	ProbePrompt = "Health check"

	chatCompletionsSuffix = "/chat/completions"
)

// Config aggregates common client parameters used by all adapters. It is
// embedded into every concrete provider Client.
type Config struct {
	BaseURL        string
	HTTPClient     *http.Client
	Model          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ProbeTimeout   time.Duration

	// UsageListener, when set, receives token usage information for each
	// successful model invocation.
	UsageListener UsageListener
}

// Init fills unset timeouts with defaults and builds the HTTP client.
func (c *Config) Init() {
	c.InitTimeouts()
	if c.HTTPClient == nil {
		c.HTTPClient = NewHTTPClient(c.ConnectTimeout, c.ReadTimeout)
	}
}

// InitTimeouts fills unset timeouts with defaults; SDK backed adapters build
// their own transport from them.
func (c *Config) InitTimeouts() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
}

// NewHTTPClient returns a client with its own transport; connect bounds dialing
// and the TLS handshake, read bounds the whole exchange.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connect,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport, Timeout: read}
}

// TrimEndpoint strips a trailing slash and chat completion suffix from a caller supplied URL.
func TrimEndpoint(URL string) string {
	URL = strings.TrimRight(strings.TrimSpace(URL), "/")
	URL = strings.TrimSuffix(URL, chatCompletionsSuffix)
	return strings.TrimRight(URL, "/")
}

// ClientOption mutates Config; providers wrap it so that users
// can continue to call e.g. *openai.WithBaseURL(...)*.
type ClientOption func(*Config)

// WithBaseURL overrides the default endpoint of the provider.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Config) {
		if baseURL != "" {
			c.BaseURL = baseURL
		}
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Config) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// WithModel selects the model name.
func WithModel(model string) ClientOption {
	return func(c *Config) {
		if model != "" {
			c.Model = model
		}
	}
}

// WithTimeouts sets connect and read timeouts; zero keeps the default.
func WithTimeouts(connect, read time.Duration) ClientOption {
	return func(c *Config) {
		if connect > 0 {
			c.ConnectTimeout = connect
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithProbeTimeout sets the health probe timeout.
func WithProbeTimeout(timeout time.Duration) ClientOption {
	return func(c *Config) {
		if timeout > 0 {
			c.ProbeTimeout = timeout
		}
	}
}

// WithUsageListener registers a callback to receive token usage metrics.
func WithUsageListener(l UsageListener) ClientOption {
	return func(c *Config) {
		c.UsageListener = l
	}
}
