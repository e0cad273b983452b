package openai

import (
	"context"
	"net/http"
	"strings"
	"sync"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

const (
	// Provider identifies the public OpenAI API in errors and events.
	Provider = "openai"

	openAIEndpoint = "https://api.openai.com/v1"

	defaultProbeMaxTokens = 5
)

// APIKeyProvider resolves the API key at call time.
type APIKeyProvider func(ctx context.Context) (string, error)

// Client is a chat completion adapter for OpenAI and OpenAI compatible endpoints.
type Client struct {
	basecfg.Config
	// Provider labels errors; hosted cluster and passthrough clients override it.
	Provider string
	APIKey   string
	// APIKeyProvider is used only if APIKey is empty.
	APIKeyProvider APIKeyProvider
	ProbeMaxTokens int
	// ModelsProbe switches the health probe to a model listing call.
	ModelsProbe bool

	ownsHTTPClient bool
	mux            sync.RWMutex
	api            *sdk.Client
}

// NewClient creates a new OpenAI client with the given API key and model
func NewClient(apiKey, model string, options ...ClientOption) *Client {
	client := &Client{
		Config: basecfg.Config{
			BaseURL: openAIEndpoint,
			Model:   model,
		},
		Provider:       Provider,
		APIKey:         apiKey,
		ProbeMaxTokens: defaultProbeMaxTokens,
	}
	for _, option := range options {
		option(client)
	}
	client.ownsHTTPClient = client.HTTPClient == nil
	client.Config.Init()
	client.api = client.newAPI(client.HTTPClient)
	return client
}

// Rebuild recreates the SDK client; an owned HTTP client gets a fresh transport.
func (c *Client) Rebuild(ctx context.Context) error {
	httpClient := c.HTTPClient
	if c.ownsHTTPClient {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		httpClient = basecfg.NewHTTPClient(c.ConnectTimeout, c.ReadTimeout)
	}
	api := c.newAPI(httpClient)
	c.mux.Lock()
	c.HTTPClient = httpClient
	c.api = api
	c.mux.Unlock()
	return nil
}

func (c *Client) newAPI(httpClient *http.Client) *sdk.Client {
	api := sdk.NewClient(
		option.WithBaseURL(strings.TrimRight(c.BaseURL, "/")+"/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &api
}

func (c *Client) client() *sdk.Client {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.api
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if c.APIKeyProvider == nil {
		return "", c.newError(llm.KindCredential, "API key is required")
	}
	key, err := c.APIKeyProvider(ctx)
	if err != nil {
		if classified := llm.AsError(err); classified.Kind != llm.KindHandler {
			return "", classified
		}
		return "", llm.Wrap(llm.KindCredential, err).WithProvider(c.Provider).WithModel(c.Model)
	}
	if strings.TrimSpace(key) == "" {
		return "", c.newError(llm.KindCredential, "API key is required")
	}
	return key, nil
}

func (c *Client) newError(kind llm.Kind, message string) *llm.Error {
	return llm.NewError(kind, message).WithProvider(c.Provider).WithModel(c.Model)
}
