package bedrock

import (
	"context"
	"net"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
	authAws "github.com/viant/scy/auth/aws"
	"github.com/viant/scy/cred/secret"
)

const (
	// Provider identifies the managed cloud adapter in errors and events.
	Provider = "aws_bedrock"

	DefaultRegion = "us-west-2"
)

// DefaultStopSequences stop generation at the next simulated human turn.
var DefaultStopSequences = []string{"\n\nHuman:"}

// ConverseAPI is the subset of the bedrock runtime client used by the adapter.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Builder creates the runtime client; it runs at construction and on Rebuild.
type Builder func(ctx context.Context) (ConverseAPI, error)

// Client represents a converse API client for AWS Bedrock
type Client struct {
	basecfg.Config
	Region          string
	Endpoint        string
	CredentialsURL  string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	StopSequences   []string

	builder Builder
	secrets *secret.Service
	mux     sync.RWMutex
	api     ConverseAPI
}

// NewClient creates a new bedrock client for model
func NewClient(ctx context.Context, model string, options ...ClientOption) (*Client, error) {
	client := &Client{
		Config:        basecfg.Config{Model: model},
		StopSequences: DefaultStopSequences,
		secrets:       secret.New(),
	}
	for _, option := range options {
		option(client)
	}
	client.Config.InitTimeouts()
	if client.Region == "" {
		client.Region = Region()
	}
	if client.builder == nil {
		client.builder = client.newRuntime
	}
	if err := client.Rebuild(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Region resolves the ambient region.
func Region() string {
	for _, key := range []string{"AWS_REGION", "AWS_DEFAULT_REGION"} {
		if region := os.Getenv(key); region != "" {
			return region
		}
	}
	return DefaultRegion
}

// Rebuild replaces the runtime client, dropping any pooled connections of the previous one.
func (c *Client) Rebuild(ctx context.Context) error {
	api, err := c.builder(ctx)
	if err != nil {
		return Classify(c.Model, err)
	}
	c.mux.Lock()
	c.api = api
	c.mux.Unlock()
	return nil
}

func (c *Client) runtime() ConverseAPI {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.api
}

func (c *Client) newRuntime(ctx context.Context) (ConverseAPI, error) {
	awsConfig, err := c.loadAwsConfig(ctx)
	if err != nil {
		return nil, err
	}
	awsConfig.Region = c.Region
	awsConfig.Retryer = func() aws.Retryer { return aws.NopRetryer{} }
	awsConfig.HTTPClient = awshttp.NewBuildableClient().
		WithTimeout(c.ReadTimeout).
		WithDialerOptions(func(dialer *net.Dialer) { dialer.Timeout = c.ConnectTimeout })
	return bedrockruntime.NewFromConfig(*awsConfig, func(o *bedrockruntime.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

func (c *Client) loadAwsConfig(ctx context.Context) (*aws.Config, error) {
	if c.CredentialsURL != "" {
		generic, err := c.secrets.GetCredentials(ctx, c.CredentialsURL)
		if err != nil {
			return nil, err
		}
		return authAws.NewConfig(ctx, &generic.Aws)
	}
	var options []func(*config.LoadOptions) error
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &awsConfig, nil
}
