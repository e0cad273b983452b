package bedrock

import "strings"

// Family groups models that share a parameter subset.
type Family string

const (
	FamilyClaude  Family = "claude"
	FamilyLlama   Family = "llama"
	FamilyMistral Family = "mistral"
	FamilyQwen    Family = "qwen"
	FamilyUnknown Family = ""
)

var familyPrefixes = []struct {
	family   Family
	prefixes []string
}{
	{FamilyClaude, []string{"anthropic.claude", "us.anthropic.claude"}},
	{FamilyLlama, []string{"meta.llama", "us.meta.llama", "meta/llama"}},
	{FamilyMistral, []string{"mistral", "mistralai/"}},
	{FamilyQwen, []string{"Qwen", "qwen"}},
}

// FamilyOf detects the model family by model id prefix.
func FamilyOf(model string) Family {
	for _, candidate := range familyPrefixes {
		for _, prefix := range candidate.prefixes {
			if strings.HasPrefix(model, prefix) {
				return candidate.family
			}
		}
	}
	return FamilyUnknown
}

// AcceptsTopK reports whether the family takes top_k through additional model request fields.
func (f Family) AcceptsTopK() bool {
	return f == FamilyClaude
}

// DefaultMaxTokens is used when neither the request nor a known model ceiling sets max tokens.
const DefaultMaxTokens = 8192

var modelCeilings = map[string]int{
	"anthropic.claude-v2":                       100000,
	"anthropic.claude-3-5-sonnet-20240620-v1:0": 4096,
	"anthropic.claude-instant-v1":               100000,
	"us.meta.llama3-1-8b-instruct-v1:0":         4096,
	"us.meta.llama3-1-70b-instruct-v1:0":        4096,
	"mistral.mixtral-8x7b-instruct-v0:1":        2048,
}

// MaxTokens returns requested when set, the known model ceiling otherwise.
func MaxTokens(model string, requested int) int {
	if requested > 0 {
		return requested
	}
	if ceiling, ok := modelCeilings[model]; ok {
		return ceiling
	}
	return DefaultMaxTokens
}
