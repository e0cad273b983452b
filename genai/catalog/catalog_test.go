package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/llmdispatch/genai/llm"
)

type prober struct {
	healthy  map[string]bool
	inFlight int64
	peak     int64
}

func (p *prober) Probe(ctx context.Context, request *llm.Request) bool {
	current := atomic.AddInt64(&p.inFlight, 1)
	defer atomic.AddInt64(&p.inFlight, -1)
	for {
		peak := atomic.LoadInt64(&p.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&p.peak, peak, current) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return p.healthy[request.Model]
}

func TestSweep(t *testing.T) {
	testCases := []struct {
		description string
		targets     []Target
		healthy     map[string]bool
		concurrency int
		expected    *Result
	}{
		{
			description: "order preserved",
			targets:     Targets(llm.InferenceOpenAI, "", "gpt-4.1", "o3", "gpt-4o", "gpt-3.5-turbo"),
			healthy:     map[string]bool{"gpt-4.1": true, "gpt-4o": true},
			concurrency: 2,
			expected:    &Result{Enabled: []string{"gpt-4.1", "gpt-4o"}, Disabled: []string{"o3", "gpt-3.5-turbo"}},
		},
		{
			description: "nothing to probe",
			expected:    &Result{Enabled: []string{}, Disabled: []string{}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			p := &prober{healthy: tc.healthy}
			actual := Sweep(context.Background(), p, tc.targets, tc.concurrency)
			assert.EqualValues(t, tc.expected, actual)
			if tc.concurrency > 0 {
				assert.LessOrEqual(t, atomic.LoadInt64(&p.peak), int64(tc.concurrency))
			}
		})
	}
}

func TestSortUnique(t *testing.T) {
	testCases := []struct {
		description string
		models      []string
		expected    []string
	}{
		{
			description: "newest version and date first",
			models: []string{
				"anthropic.claude-3-sonnet-20240229-v1:0",
				"anthropic.claude-3-5-sonnet-20240620-v1:0",
				"meta.llama3-1-8b-instruct-v1:0",
				"anthropic.claude-v2",
			},
			expected: []string{
				"anthropic.claude-v2",
				"anthropic.claude-3-5-sonnet-20240620-v1:0",
				"anthropic.claude-3-sonnet-20240229-v1:0",
				"meta.llama3-1-8b-instruct-v1:0",
			},
		},
		{
			description: "duplicates by base name dropped",
			models:      []string{"us.meta.llama3-8b", "meta.llama3-8b", "mixtral"},
			expected:    []string{"us.meta.llama3-8b", "mixtral"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.EqualValues(t, tc.expected, SortUnique(tc.models))
		})
	}
}

func TestModels(t *testing.T) {
	assert.EqualValues(t, 10, ConcurrencyFor(llm.InferenceBedrock))
	assert.EqualValues(t, 5, ConcurrencyFor(llm.InferenceCAII))
	models := Models(llm.InferenceGemini)
	models[0] = "changed"
	assert.EqualValues(t, "gemini-2.5-pro", GeminiModels[0])
	assert.Nil(t, Models(llm.InferenceBedrock))
}
