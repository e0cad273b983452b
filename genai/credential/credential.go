// Package credential resolves per provider secrets through an explicit
// precedence chain instead of scattered environment reads.
package credential

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/viant/llmdispatch/genai/llm"
)

const (
	KeyCDPToken           = "CDP_TOKEN"
	KeyOpenAI             = "OPENAI_API_KEY"
	KeyGemini             = "GEMINI_API_KEY"
	KeyOpenAICompatible   = "OpenAI_Endpoint_Compatible_Key"
	KeyAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	KeyAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	KeyAWSRegion          = "AWS_REGION"
)

// Keys lists every managed credential key.
var Keys = []string{
	KeyCDPToken,
	KeyOpenAI,
	KeyGemini,
	KeyOpenAICompatible,
	KeyAWSAccessKeyID,
	KeyAWSSecretAccessKey,
	KeyAWSRegion,
}

// Source is a key/value secret lookup. A missing key is reported with ok=false, not an error.
type Source interface {
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
}

// APIKeyFor returns the credential key holding the API key of an inference type.
func APIKeyFor(inferenceType llm.InferenceType) string {
	switch inferenceType {
	case llm.InferenceOpenAI:
		return KeyOpenAI
	case llm.InferenceGemini:
		return KeyGemini
	case llm.InferenceOpenAICompatible:
		return KeyOpenAICompatible
	case llm.InferenceCAII:
		return KeyCDPToken
	}
	return ""
}

// Env reads the process environment.
type Env struct{}

func (Env) Lookup(ctx context.Context, key string) (string, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Static is an in memory source; empty values count as missing.
type Static map[string]string

func (s Static) Lookup(ctx context.Context, key string) (string, bool, error) {
	value, ok := s[key]
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Chain consults sources in order; the first one holding the key wins.
type Chain []Source

func (c Chain) Lookup(ctx context.Context, key string) (string, bool, error) {
	for _, source := range c {
		if source == nil {
			continue
		}
		value, ok, err := source.Lookup(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

// Require returns the value of key or a CredentialMissing error.
func Require(ctx context.Context, source Source, key string) (string, error) {
	if source == nil {
		return "", llm.NewError(llm.KindCredential, fmt.Sprintf("%s is not set", key))
	}
	value, ok, err := source.Lookup(ctx, key)
	if err != nil {
		return "", llm.Wrap(llm.KindCredential, err)
	}
	if !ok {
		return "", llm.NewError(llm.KindCredential, fmt.Sprintf("%s is not set", key))
	}
	return value, nil
}

// Status tells whether a credential key is set.
type Status struct {
	Key   string `json:"key" yaml:"key"`
	IsSet bool   `json:"is_set" yaml:"isSet"`
}

// StatusOf reports which managed keys source holds; lookup errors count as unset.
func StatusOf(ctx context.Context, source Source) []Status {
	ret := make([]Status, 0, len(Keys))
	for _, key := range Keys {
		_, ok, err := source.Lookup(ctx, key)
		ret = append(ret, Status{Key: key, IsSet: ok && err == nil})
	}
	return ret
}
