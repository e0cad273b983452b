package llm

import (
	"fmt"
	"strings"
)

// InferenceType selects the backend family handling a request.
type InferenceType string

const (
	// InferenceBedrock identifies AWS Bedrock (managed-cloud inference).
	InferenceBedrock InferenceType = "aws_bedrock"

	// InferenceCAII identifies hosted-cluster inference behind an OpenAI compatible gateway.
	InferenceCAII InferenceType = "CAII"

	// InferenceOpenAI identifies the public OpenAI API.
	InferenceOpenAI InferenceType = "openai"

	// InferenceGemini identifies the public Google Gemini API.
	InferenceGemini InferenceType = "gemini"

	// InferenceOpenAICompatible identifies any OpenAI compatible endpoint supplied by the caller.
	InferenceOpenAICompatible InferenceType = "openai_compatible"
)

// InferenceTypes lists every supported inference type.
var InferenceTypes = []InferenceType{
	InferenceBedrock,
	InferenceCAII,
	InferenceOpenAI,
	InferenceGemini,
	InferenceOpenAICompatible,
}

func (t InferenceType) String() string {
	return string(t)
}

// RequiresEndpoint reports whether requests of this type must carry an endpoint URL.
func (t InferenceType) RequiresEndpoint() bool {
	return t == InferenceCAII || t == InferenceOpenAICompatible
}

// ProviderType returns the custom endpoint registry provider tag for the inference type.
func (t InferenceType) ProviderType() string {
	switch t {
	case InferenceBedrock:
		return "bedrock"
	case InferenceCAII:
		return "caii"
	default:
		return string(t)
	}
}

// ParseInferenceType matches a tag case-insensitively; provider registry tags are accepted as aliases.
func ParseInferenceType(tag string) (InferenceType, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return InferenceBedrock, nil
	}
	for _, candidate := range InferenceTypes {
		if strings.EqualFold(tag, string(candidate)) || strings.EqualFold(tag, candidate.ProviderType()) {
			return candidate, nil
		}
	}
	return "", NewError(KindUnsupported, fmt.Sprintf("unsupported inference type: %v", tag))
}

// Request describes a single inference call.
type Request struct {
	// Model is the provider specific model identifier.
	Model string `json:"model_id" yaml:"model"`

	// Type selects the adapter.
	Type InferenceType `json:"inference_type" yaml:"inferenceType"`

	// Endpoint is the base URL for hosted-cluster and OpenAI compatible requests.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	Prompt     string     `json:"prompt" yaml:"prompt"`
	Parameters Parameters `json:"model_params" yaml:"parameters"`

	// RawText returns the model output verbatim instead of recovered records.
	RawText bool `json:"raw_text,omitempty" yaml:"rawText,omitempty"`

	// APIKey overrides every other credential source for this call.
	APIKey string `json:"-" yaml:"-"`
}

// Validate checks request fields that do not depend on the selected adapter.
func (r *Request) Validate() error {
	if r == nil {
		return NewError(KindUnsupported, "request was nil")
	}
	if strings.TrimSpace(r.Model) == "" {
		return NewError(KindInvalidModel, "model is required")
	}
	if r.Type.RequiresEndpoint() && strings.TrimSpace(r.Endpoint) == "" {
		return NewError(KindUnsupported, fmt.Sprintf("endpoint is required for %v", r.Type)).
			WithProvider(r.Type.String()).WithModel(r.Model)
	}
	return r.Parameters.Validate()
}

// Record is a single structured record recovered from model output, e.g. a
// question/solution or score/justification pair.
type Record map[string]interface{}

// Result is the outcome of a successful dispatch: either Text (raw mode) or Records.
type Result struct {
	Raw     bool     `json:"raw,omitempty"`
	Text    string   `json:"text,omitempty"`
	Records []Record `json:"records,omitempty"`
}
