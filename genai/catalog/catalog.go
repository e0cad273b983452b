// Package catalog classifies known models as enabled or disabled by probing
// their adapters.
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/llmdispatch/genai/llm"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 5
	BedrockConcurrency = 10
)

// Prober reports reachability of the model a request names.
type Prober interface {
	Probe(ctx context.Context, request *llm.Request) bool
}

// Target is one model to probe.
type Target struct {
	Model    string            `json:"model_id" yaml:"model"`
	Type     llm.InferenceType `json:"inference_type" yaml:"inferenceType"`
	Endpoint string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Result lists model ids in input order.
type Result struct {
	Enabled  []string `json:"enabled" yaml:"enabled"`
	Disabled []string `json:"disabled" yaml:"disabled"`
}

// ConcurrencyFor returns the default probe concurrency of an inference type.
func ConcurrencyFor(inferenceType llm.InferenceType) int {
	if inferenceType == llm.InferenceBedrock {
		return BedrockConcurrency
	}
	return DefaultConcurrency
}

// Sweep probes targets with at most concurrency probes in flight; zero uses DefaultConcurrency.
func Sweep(ctx context.Context, prober Prober, targets []Target, concurrency int) *Result {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	healthy := make([]bool, len(targets))
	group := errgroup.Group{}
	group.SetLimit(concurrency)
	for i, target := range targets {
		group.Go(func() error {
			healthy[i] = prober.Probe(ctx, &llm.Request{
				Model:      target.Model,
				Type:       target.Type,
				Endpoint:   target.Endpoint,
				Parameters: llm.DefaultParameters(),
			})
			return nil
		})
	}
	_ = group.Wait()
	ret := &Result{Enabled: []string{}, Disabled: []string{}}
	for i, target := range targets {
		if healthy[i] {
			ret.Enabled = append(ret.Enabled, target.Model)
			continue
		}
		slog.Debug("model disabled", "provider", target.Type.String(), "model", target.Model)
		ret.Disabled = append(ret.Disabled, target.Model)
	}
	return ret
}

// Targets builds targets of one inference type.
func Targets(inferenceType llm.InferenceType, endpoint string, models ...string) []Target {
	ret := make([]Target, 0, len(models))
	for _, model := range models {
		ret = append(ret, Target{Model: model, Type: inferenceType, Endpoint: endpoint})
	}
	return ret
}

// SortUnique drops models whose name after the last '.' was already seen,
// then orders by version ("v<digits>" part) and 8 digit date, newest first.
func SortUnique(models []string) []string {
	seen := map[string]bool{}
	ret := make([]string, 0, len(models))
	for _, model := range models {
		base := baseName(model)
		if seen[base] {
			continue
		}
		seen[base] = true
		ret = append(ret, model)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		vi, di := versionKey(ret[i])
		vj, dj := versionKey(ret[j])
		if vi != vj {
			return vi > vj
		}
		return di > dj
	})
	return ret
}

func baseName(model string) string {
	return model[strings.LastIndex(model, ".")+1:]
}

func versionKey(model string) (float64, string) {
	version, date := 0.0, "00000000"
	versionFound, dateFound := false, false
	for _, part := range strings.Split(baseName(model), "-") {
		if !versionFound && strings.HasPrefix(part, "v") && strings.ContainsAny(part, "0123456789") {
			versionFound = true
			value := strings.SplitN(part[1:], ":", 2)[0]
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				version = v
			}
		}
		if !dateFound && len(part) == 8 && isDigits(part) {
			dateFound = true
			date = part
		}
	}
	return version, date
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// OpenAIModels is the curated list of OpenAI text generation models, newest first.
var OpenAIModels = []string{
	"gpt-4.1", "gpt-4.1-mini", "gpt-4.1-nano", "o3", "o4-mini", "o3-mini", "o1",
	"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo",
}

// GeminiModels is the curated list of Gemini text generation models, newest first.
var GeminiModels = []string{
	"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite", "gemini-2.0-flash",
	"gemini-2.0-flash-lite", "gemini-1.5-pro", "gemini-1.5-flash", "gemini-1.5-flash-8b",
}

// Models returns a copy of the curated models of an inference type; other types have none.
func Models(inferenceType llm.InferenceType) []string {
	switch inferenceType {
	case llm.InferenceOpenAI:
		return append([]string{}, OpenAIModels...)
	case llm.InferenceGemini:
		return append([]string{}, GeminiModels...)
	}
	return nil
}
