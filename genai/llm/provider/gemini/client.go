package gemini

import (
	"fmt"
	"sync"

	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

const (
	// Provider identifies the Gemini API in errors and events.
	Provider = "gemini"

	geminiEndpoint = "https://generativelanguage.googleapis.com/%v/models"

	defaultProbeMaxTokens = 10
)

// Client represents a Gemini API client
type Client struct {
	basecfg.Config
	APIKey  string
	Version string

	ownsHTTPClient bool
	mux            sync.RWMutex
}

// NewClient creates a new Gemini client with the given API key and model
func NewClient(apiKey, model string, options ...ClientOption) *Client {
	client := &Client{
		Config: basecfg.Config{Model: model},
		APIKey: apiKey,
	}
	for _, option := range options {
		option(client)
	}
	if client.Version == "" {
		client.Version = "v1beta"
	}
	if client.BaseURL == "" {
		client.BaseURL = fmt.Sprintf(geminiEndpoint, client.Version)
	}
	client.ownsHTTPClient = client.HTTPClient == nil
	client.Config.Init()
	return client
}
