package llm

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature = 0.0
	DefaultTopP        = 1.0
	DefaultMinP        = 0.0
	DefaultTopK        = 150
	DefaultMaxTokens   = 8192
)

// Parameters controls sampling and output length of a single generation call.
// Values are copied on every call so an adapter can never mutate the caller's
// instance; degraded retries derive a new value with WithMaxTokens.
type Parameters struct {
	// Temperature is the temperature for sampling, between 0 and 2.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// TopP is the cumulative probability for nucleus sampling, between 0 and 1.
	TopP float64 `json:"top_p" yaml:"top_p"`

	// MinP is the minimum token probability threshold, between 0 and 1.
	MinP float64 `json:"min_p" yaml:"min_p"`

	// TopK is the number of tokens to consider for top-k sampling.
	TopK int `json:"top_k" yaml:"top_k"`

	// MaxTokens is the maximum number of tokens to generate; zero leaves the
	// ceiling to the provider adapter.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ParameterOption overrides a single default.
type ParameterOption func(*Parameters)

func WithTemperature(v float64) ParameterOption {
	return func(p *Parameters) { p.Temperature = v }
}

func WithTopP(v float64) ParameterOption {
	return func(p *Parameters) { p.TopP = v }
}

func WithMinP(v float64) ParameterOption {
	return func(p *Parameters) { p.MinP = v }
}

func WithTopK(v int) ParameterOption {
	return func(p *Parameters) { p.TopK = v }
}

func WithMaxTokens(v int) ParameterOption {
	return func(p *Parameters) { p.MaxTokens = v }
}

// DefaultParameters returns parameters with every field at its default.
func DefaultParameters() Parameters {
	return Parameters{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MinP:        DefaultMinP,
		TopK:        DefaultTopK,
		MaxTokens:   DefaultMaxTokens,
	}
}

// NewParameters applies options on top of the defaults and validates the result.
func NewParameters(options ...ParameterOption) (Parameters, error) {
	ret := DefaultParameters()
	for _, opt := range options {
		opt(&ret)
	}
	if err := ret.Validate(); err != nil {
		return Parameters{}, err
	}
	return ret, nil
}

// Validate checks every field against its allowed range.
func (p Parameters) Validate() error {
	switch {
	case p.Temperature < 0 || p.Temperature > 2:
		return fmt.Errorf("temperature %v out of range [0,2]", p.Temperature)
	case p.TopP < 0 || p.TopP > 1:
		return fmt.Errorf("top_p %v out of range [0,1]", p.TopP)
	case p.MinP < 0 || p.MinP > 1:
		return fmt.Errorf("min_p %v out of range [0,1]", p.MinP)
	case p.TopK < 0:
		return fmt.Errorf("top_k %v must be >= 0", p.TopK)
	case p.MaxTokens < 0:
		return fmt.Errorf("max_tokens %v must be >= 1 or unset", p.MaxTokens)
	}
	return nil
}

// Init replaces a zero value with the defaults, keeping max tokens unset so
// the adapter can apply a model ceiling.
func (p *Parameters) Init() {
	if *p == (Parameters{}) {
		*p = DefaultParameters()
		p.MaxTokens = 0
	}
}

// OutputTokens returns the max tokens, falling back to DefaultMaxTokens when unset.
func (p Parameters) OutputTokens() int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}

type parameters Parameters

// UnmarshalJSON decodes on top of the defaults so omitted fields keep them.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	ret := parameters(DefaultParameters())
	if err := json.Unmarshal(data, &ret); err != nil {
		return err
	}
	*p = Parameters(ret)
	return nil
}

// UnmarshalYAML decodes on top of the defaults so omitted fields keep them.
func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	ret := parameters(DefaultParameters())
	if err := node.Decode(&ret); err != nil {
		return err
	}
	*p = Parameters(ret)
	return nil
}

// WithMaxTokens returns a copy with the output ceiling replaced.
func (p Parameters) WithMaxTokens(maxTokens int) Parameters {
	p.MaxTokens = maxTokens
	return p
}
