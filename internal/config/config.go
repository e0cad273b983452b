// Package config loads the dispatcher configuration from a YAML document.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/llmdispatch/genai/credential"
	"github.com/viant/llmdispatch/genai/llm/provider"
	"github.com/viant/llmdispatch/genai/llm/provider/caii"
	"github.com/viant/llmdispatch/genai/llm/retry"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConcurrency       = 5
	DefaultConnectTimeoutSec = 5
	DefaultReadTimeoutSec    = 3600
	DefaultProbeTimeoutSec   = 5
	DefaultRegion            = "us-west-2"
	DefaultEndpointsURL      = "custom_model_endpoints.json"

	EnvConcurrency = "LLMDISPATCH_CONCURRENCY"
)

// Retry configures the managed cloud retry policy.
type Retry struct {
	MaxRetries    *int    `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
	BaseDelayMs   int     `yaml:"baseDelayMs,omitempty" json:"baseDelayMs,omitempty"`
	Multiplier    float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	TokenCeilings []int   `yaml:"tokenCeilings,omitempty" json:"tokenCeilings,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Concurrency       int    `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	ConnectTimeoutSec int    `yaml:"connectTimeoutSec,omitempty" json:"connectTimeoutSec,omitempty"`
	ReadTimeoutSec    int    `yaml:"readTimeoutSec,omitempty" json:"readTimeoutSec,omitempty"`
	ProbeTimeoutSec   int    `yaml:"probeTimeoutSec,omitempty" json:"probeTimeoutSec,omitempty"`
	Region            string `yaml:"region,omitempty" json:"region,omitempty"`
	CAIITokenFile     string `yaml:"caiiTokenFile,omitempty" json:"caiiTokenFile,omitempty"`
	EndpointsURL      string `yaml:"endpointsURL,omitempty" json:"endpointsURL,omitempty"`
	// CredentialsURL points to an optional JSON map of credential key to value.
	CredentialsURL string `yaml:"credentialsURL,omitempty" json:"credentialsURL,omitempty"`
	Retry          Retry  `yaml:"retry,omitempty" json:"retry,omitempty"`
	// RateLimits caps requests per second by inference type.
	RateLimits map[string]float64 `yaml:"rateLimits,omitempty" json:"rateLimits,omitempty"`
	// Secrets maps credential keys to scy secret URLs.
	Secrets map[string]string `yaml:"secrets,omitempty" json:"secrets,omitempty"`
}

// Default returns the configuration used when no document is present.
func Default() *Config {
	ret := &Config{}
	ret.Init()
	return ret
}

// Load reads the YAML document at URL; a missing document yields defaults.
// Environment overrides are applied last.
func Load(ctx context.Context, URL string) (*Config, error) {
	ret := &Config{}
	if URL != "" {
		fs := afs.New()
		ok, err := fs.Exists(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to check config %v: %w", URL, err)
		}
		if ok {
			data, err := fs.DownloadWithURL(ctx, URL)
			if err != nil {
				return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
			}
			if err = yaml.Unmarshal(data, ret); err != nil {
				return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
			}
		}
	}
	if err := ret.applyEnv(); err != nil {
		return nil, err
	}
	ret.Init()
	return ret, ret.Validate()
}

func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv(EnvConcurrency); ok && strings.TrimSpace(value) != "" {
		concurrency, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %v: %w", EnvConcurrency, err)
		}
		c.Concurrency = concurrency
	}
	if value := os.Getenv(credential.KeyAWSRegion); value != "" {
		c.Region = value
	}
	return nil
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ConnectTimeoutSec == 0 {
		c.ConnectTimeoutSec = DefaultConnectTimeoutSec
	}
	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = DefaultReadTimeoutSec
	}
	if c.ProbeTimeoutSec == 0 {
		c.ProbeTimeoutSec = DefaultProbeTimeoutSec
	}
	if c.Region == "" {
		c.Region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.CAIITokenFile == "" {
		c.CAIITokenFile = caii.DefaultTokenFile
	}
	if c.EndpointsURL == "" {
		c.EndpointsURL = DefaultEndpointsURL
	}
	if c.Retry.MaxRetries == nil {
		maxRetries := retry.DefaultMaxRetries
		c.Retry.MaxRetries = &maxRetries
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = int(retry.DefaultBaseDelay / time.Millisecond)
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = retry.DefaultMultiplier
	}
	if len(c.Retry.TokenCeilings) == 0 {
		c.Retry.TokenCeilings = append([]int{}, retry.DefaultTokenCeilings...)
	}
}

// Validate checks ranges.
func (c *Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency %v must be >= 1", c.Concurrency)
	case c.ConnectTimeoutSec < 0 || c.ReadTimeoutSec < 0 || c.ProbeTimeoutSec < 0:
		return fmt.Errorf("timeouts must not be negative")
	case c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0:
		return fmt.Errorf("retry.maxRetries %v must be >= 0", *c.Retry.MaxRetries)
	case c.Retry.Multiplier < 1:
		return fmt.Errorf("retry.multiplier %v must be >= 1", c.Retry.Multiplier)
	}
	for tag, limit := range c.RateLimits {
		if limit <= 0 {
			return fmt.Errorf("rateLimits.%v %v must be > 0", tag, limit)
		}
	}
	return nil
}

// RetryPolicy returns the managed cloud retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: *c.Retry.MaxRetries,
		BaseDelay:  time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		Multiplier: c.Retry.Multiplier,
		Transform:  retry.TokenCeilings(c.Retry.TokenCeilings...),
	}
}

// ProviderOptions returns adapter settings for the provider factory.
func (c *Config) ProviderOptions() provider.Options {
	return provider.Options{
		Region:         c.Region,
		ConnectTimeout: time.Duration(c.ConnectTimeoutSec) * time.Second,
		ReadTimeout:    time.Duration(c.ReadTimeoutSec) * time.Second,
		ProbeTimeout:   time.Duration(c.ProbeTimeoutSec) * time.Second,
		TokenFile:      c.CAIITokenFile,
	}
}

// Credentials returns the ambient credential chain: secrets, credentials file, then environment.
func (c *Config) Credentials() credential.Source {
	var ret credential.Chain
	if len(c.Secrets) > 0 {
		ret = append(ret, credential.NewSecrets(c.Secrets))
	}
	if c.CredentialsURL != "" {
		ret = append(ret, credential.NewFile(c.CredentialsURL))
	}
	return append(ret, credential.Env{})
}
