// Package endpoint is the custom endpoint registry: per (model, provider type)
// endpoint URLs and credential overrides stored in a JSON document.
package endpoint

import (
	"fmt"
	"strings"
)

const (
	ProviderCAII             = "caii"
	ProviderBedrock          = "bedrock"
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai_compatible"
	ProviderGemini           = "gemini"

	DefaultAWSRegion = "us-west-2"
)

// ProviderTypes lists supported provider types.
var ProviderTypes = []string{ProviderCAII, ProviderBedrock, ProviderOpenAI, ProviderOpenAICompatible, ProviderGemini}

// Endpoint is one registered custom endpoint; credential fields apply to its provider type only.
type Endpoint struct {
	ID                 string `json:"endpoint_id" yaml:"endpointID"`
	DisplayName        string `json:"display_name" yaml:"displayName"`
	ModelID            string `json:"model_id" yaml:"modelID"`
	ProviderType       string `json:"provider_type" yaml:"providerType"`
	URL                string `json:"endpoint_url,omitempty" yaml:"endpointURL,omitempty"`
	CDPToken           string `json:"cdp_token,omitempty" yaml:"cdpToken,omitempty"`
	APIKey             string `json:"api_key,omitempty" yaml:"apiKey,omitempty"`
	AWSAccessKeyID     string `json:"aws_access_key_id,omitempty" yaml:"awsAccessKeyID,omitempty"`
	AWSSecretAccessKey string `json:"aws_secret_access_key,omitempty" yaml:"awsSecretAccessKey,omitempty"`
	AWSRegion          string `json:"aws_region,omitempty" yaml:"awsRegion,omitempty"`
	CreatedAt          string `json:"created_at,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty" yaml:"updatedAt,omitempty"`
}

// Key returns the registry key "model_id:provider_type".
func (e *Endpoint) Key() string {
	return Key(e.ModelID, e.ProviderType)
}

func Key(modelID, providerType string) string {
	return modelID + ":" + providerType
}

// Init applies defaults.
func (e *Endpoint) Init() {
	e.ProviderType = strings.ToLower(strings.TrimSpace(e.ProviderType))
	if e.ProviderType == ProviderBedrock && e.AWSRegion == "" {
		e.AWSRegion = DefaultAWSRegion
	}
	if e.DisplayName == "" {
		e.DisplayName = e.ModelID
	}
}

// Validate checks fields required by the provider type.
func (e *Endpoint) Validate() error {
	if e.ModelID == "" {
		return fmt.Errorf("model_id was empty")
	}
	required := map[string]string{}
	switch e.ProviderType {
	case ProviderCAII:
		required = map[string]string{"endpoint_url": e.URL, "cdp_token": e.CDPToken}
	case ProviderBedrock:
		required = map[string]string{"endpoint_url": e.URL, "aws_access_key_id": e.AWSAccessKeyID, "aws_secret_access_key": e.AWSSecretAccessKey}
	case ProviderOpenAI, ProviderGemini:
		required = map[string]string{"api_key": e.APIKey}
	case ProviderOpenAICompatible:
		required = map[string]string{"endpoint_url": e.URL, "api_key": e.APIKey}
	default:
		return fmt.Errorf("unknown provider type: %v", e.ProviderType)
	}
	for _, name := range []string{"endpoint_url", "cdp_token", "api_key", "aws_access_key_id", "aws_secret_access_key"} {
		if value, ok := required[name]; ok && strings.TrimSpace(value) == "" {
			return fmt.Errorf("%v endpoint %v: %v was empty", e.ProviderType, e.ModelID, name)
		}
	}
	return nil
}

// Stats summarises registry content.
type Stats struct {
	TotalEndpoints int            `json:"total_endpoints"`
	ProviderCounts map[string]int `json:"provider_counts"`
	Models         []string       `json:"models"`
}
