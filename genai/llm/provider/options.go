package provider

import (
	"time"

	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
	"github.com/viant/llmdispatch/genai/llm/provider/bedrock"
)

// Options holds settings shared by every adapter the factory builds.
type Options struct {
	Region         string        `yaml:"region,omitempty" json:"region,omitempty"`
	ConnectTimeout time.Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    time.Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	ProbeTimeout   time.Duration `yaml:"probeTimeout,omitempty" json:"probeTimeout,omitempty"`
	TokenFile      string        `yaml:"tokenFile,omitempty" json:"tokenFile,omitempty"`
	// OpenAIBaseURL and GeminiBaseURL override the public API addresses.
	OpenAIBaseURL string `yaml:"openAIBaseURL,omitempty" json:"openAIBaseURL,omitempty"`
	GeminiBaseURL string `yaml:"geminiBaseURL,omitempty" json:"geminiBaseURL,omitempty"`

	UsageListener  basecfg.UsageListener `yaml:"-" json:"-"`
	BedrockBuilder bedrock.Builder       `yaml:"-" json:"-"`
}
