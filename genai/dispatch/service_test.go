package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/llmdispatch/genai/llm"
	"github.com/viant/llmdispatch/genai/llm/retry"
	"github.com/viant/llmdispatch/internal/log"
)

// scripted returns errs in order, then text.
type scripted struct {
	mux      sync.Mutex
	errs     []error
	text     string
	attempts []llm.Parameters
}

func (s *scripted) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.attempts = append(s.attempts, params)
	if len(s.attempts) <= len(s.errs) {
		return "", s.errs[len(s.attempts)-1]
	}
	if s.text == "" {
		return prompt, nil
	}
	return s.text, nil
}

func (s *scripted) Probe(ctx context.Context) bool { return len(s.errs) == 0 }

// counting tracks the peak number of concurrent Invoke calls.
type counting struct {
	inFlight int64
	peak     int64
	calls    int64
}

func (c *counting) Invoke(ctx context.Context, prompt string, params llm.Parameters) (string, error) {
	current := atomic.AddInt64(&c.inFlight, 1)
	defer atomic.AddInt64(&c.inFlight, -1)
	atomic.AddInt64(&c.calls, 1)
	for {
		peak := atomic.LoadInt64(&c.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&c.peak, peak, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return `[{"question": "` + prompt + `", "solution": "S"}]`, nil
}

func (c *counting) Probe(ctx context.Context) bool { return true }

type factory struct {
	adapter llm.Adapter
	err     error
}

func (f *factory) CreateAdapter(ctx context.Context, request *llm.Request) (llm.Adapter, error) {
	return f.adapter, f.err
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newRequest(inferenceType llm.InferenceType, raw bool) *llm.Request {
	return &llm.Request{
		Model:      "model-1",
		Type:       inferenceType,
		Endpoint:   "http://localhost/v1",
		Prompt:     "prompt",
		Parameters: llm.DefaultParameters(),
		RawText:    raw,
	}
}

func throttled() error {
	return llm.NewError(llm.KindRateLimited, "ThrottlingException")
}

func TestService_Dispatch(t *testing.T) {
	testCases := []struct {
		description string
		request     *llm.Request
		adapter     *scripted
		expected    *llm.Result
		kind        llm.Kind
		attempts    int
		maxTokens   []int
	}{
		{
			description: "raw text returned verbatim",
			request:     newRequest(llm.InferenceOpenAI, true),
			adapter:     &scripted{text: "  hello [not json "},
			expected:    &llm.Result{Raw: true, Text: "  hello [not json "},
			attempts:    1,
		},
		{
			description: "structured output recovered",
			request:     newRequest(llm.InferenceGemini, false),
			adapter:     &scripted{text: `Here: [{"score": 4, "justification": "ok"}] done`},
			expected:    &llm.Result{Records: []llm.Record{{"score": 4.0, "justification": "ok"}}},
			attempts:    1,
		},
		{
			description: "managed cloud absorbs two throttles",
			request:     newRequest(llm.InferenceBedrock, false),
			adapter:     &scripted{errs: []error{throttled(), throttled()}, text: `{"a": "b"}`},
			expected:    &llm.Result{Records: []llm.Record{{"a": "b"}}},
			attempts:    3,
		},
		{
			description: "managed cloud degrades token ceiling",
			request:     newRequest(llm.InferenceBedrock, true),
			adapter: &scripted{errs: []error{
				llm.NewError(llm.KindTokenBudget, "max_tokens"),
				llm.NewError(llm.KindTokenBudget, "max_tokens"),
			}, text: "ok"},
			expected:  &llm.Result{Raw: true, Text: "ok"},
			attempts:  3,
			maxTokens: []int{8192, 4096, 2048},
		},
		{
			description: "invalid model propagates immediately",
			request:     newRequest(llm.InferenceBedrock, false),
			adapter:     &scripted{errs: []error{llm.NewError(llm.KindInvalidModel, "bad model"), nil}},
			kind:        llm.KindInvalidModel,
			attempts:    1,
		},
		{
			description: "non managed cloud performs a single attempt",
			request:     newRequest(llm.InferenceCAII, false),
			adapter:     &scripted{errs: []error{throttled(), nil}},
			kind:        llm.KindRateLimited,
			attempts:    1,
		},
		{
			description: "invalid request rejected before any attempt",
			request:     &llm.Request{Type: llm.InferenceOpenAI, Parameters: llm.DefaultParameters()},
			adapter:     &scripted{},
			kind:        llm.KindInvalidModel,
			attempts:    0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			service := New(&factory{adapter: tc.adapter}, WithSleep(noSleep), WithEvents(nil))
			result, err := service.Dispatch(context.Background(), tc.request)
			assert.Len(t, tc.adapter.attempts, tc.attempts)
			if tc.kind != "" {
				assert.Nil(t, result)
				assert.EqualValues(t, tc.kind, llm.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, tc.expected, result)
			if tc.maxTokens != nil {
				var actual []int
				for _, params := range tc.adapter.attempts {
					actual = append(actual, params.MaxTokens)
				}
				assert.EqualValues(t, tc.maxTokens, actual)
			}
		})
	}
}

func TestService_Dispatch_FactoryError(t *testing.T) {
	service := New(&factory{err: llm.NewError(llm.KindCredential, "OPENAI_API_KEY is not set")}, WithEvents(nil))
	_, err := service.Dispatch(context.Background(), newRequest(llm.InferenceOpenAI, false))
	assert.EqualValues(t, llm.KindCredential, llm.KindOf(err))
}

func TestService_ConcurrencyBound(t *testing.T) {
	const requests, limit = 24, 3
	adapter := &counting{}
	service := New(&factory{adapter: adapter}, WithConcurrency(limit), WithEvents(nil))

	var batch []*llm.Request
	for i := 0; i < requests; i++ {
		request := newRequest(llm.InferenceOpenAI, false)
		request.Prompt = fmt.Sprintf("Q%d", i)
		batch = append(batch, request)
	}
	var completed int64
	outcomes := service.DispatchAll(context.Background(), batch, func(outcome *Outcome) { completed++ })

	assert.EqualValues(t, requests, completed)
	assert.EqualValues(t, requests, atomic.LoadInt64(&adapter.calls))
	assert.LessOrEqual(t, atomic.LoadInt64(&adapter.peak), int64(limit))
	assert.Greater(t, atomic.LoadInt64(&adapter.peak), int64(0))
	for i, outcome := range outcomes {
		require.NoError(t, outcome.Err)
		assert.EqualValues(t, i, outcome.Index)
		assert.EqualValues(t, fmt.Sprintf("Q%d", i), outcome.Result.Records[0]["question"])
	}
}

func TestService_RetrySleepReleasesGate(t *testing.T) {
	sleeping := make(chan struct{})
	release := make(chan struct{})
	sleep := func(ctx context.Context, d time.Duration) error {
		close(sleeping)
		<-release
		return nil
	}
	retrying := &scripted{errs: []error{throttled()}, text: "late"}
	other := &scripted{text: "fast"}
	adapters := map[string]llm.Adapter{"slow": retrying, "fast": other}
	service := New(factoryFunc(func(ctx context.Context, request *llm.Request) (llm.Adapter, error) {
		return adapters[request.Model], nil
	}), WithConcurrency(1), WithSleep(sleep), WithEvents(nil))

	slow := newRequest(llm.InferenceBedrock, true)
	slow.Model = "slow"
	done := make(chan *llm.Result, 1)
	go func() {
		result, _ := service.Dispatch(context.Background(), slow)
		done <- result
	}()
	<-sleeping
	fast := newRequest(llm.InferenceOpenAI, true)
	fast.Model = "fast"
	result, err := service.Dispatch(context.Background(), fast)
	require.NoError(t, err)
	assert.EqualValues(t, "fast", result.Text)
	close(release)
	assert.EqualValues(t, "late", (<-done).Text)
}

func TestService_DefaultParameters(t *testing.T) {
	partial := &llm.Request{}
	require.NoError(t, json.Unmarshal([]byte(`{"model_id": "model-1", "inference_type": "openai", "prompt": "p", "model_params": {"temperature": 0.5}}`), partial))
	partial.RawText = true

	zero := newRequest(llm.InferenceBedrock, true)
	zero.Parameters = llm.Parameters{}

	testCases := []struct {
		description string
		request     *llm.Request
		expected    llm.Parameters
	}{
		{
			description: "zero parameters leave max tokens to the adapter",
			request:     zero,
			expected:    llm.Parameters{TopP: 1, TopK: 150},
		},
		{
			description: "partial model params keep defaults",
			request:     partial,
			expected:    llm.Parameters{Temperature: 0.5, TopP: 1, TopK: 150, MaxTokens: 8192},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			adapter := &scripted{text: "ok"}
			service := New(&factory{adapter: adapter}, WithSleep(noSleep), WithEvents(nil))
			_, err := service.Dispatch(context.Background(), tc.request)
			require.NoError(t, err)
			require.Len(t, adapter.attempts, 1)
			assert.EqualValues(t, tc.expected, adapter.attempts[0])
		})
	}
	assert.EqualValues(t, llm.Parameters{}, zero.Parameters)
}

// rebuilding counts Rebuild calls.
type rebuilding struct {
	scripted
	rebuilds int64
}

func (r *rebuilding) Rebuild(ctx context.Context) error {
	atomic.AddInt64(&r.rebuilds, 1)
	return nil
}

func TestService_AdmissionCancelled(t *testing.T) {
	var sleeps int64
	sleep := func(ctx context.Context, d time.Duration) error {
		atomic.AddInt64(&sleeps, 1)
		return nil
	}
	adapter := &rebuilding{}
	service := New(&factory{adapter: adapter}, WithConcurrency(1), WithSleep(sleep), WithEvents(nil))
	require.NoError(t, service.gate.Acquire(context.Background(), 1))
	defer service.gate.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := service.Dispatch(ctx, newRequest(llm.InferenceBedrock, true))
	assert.EqualValues(t, llm.KindHandler, llm.KindOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.EqualValues(t, 0, atomic.LoadInt64(&adapter.rebuilds))
	assert.EqualValues(t, 0, atomic.LoadInt64(&sleeps))
	assert.Empty(t, adapter.attempts)
}

type factoryFunc func(ctx context.Context, request *llm.Request) (llm.Adapter, error)

func (f factoryFunc) CreateAdapter(ctx context.Context, request *llm.Request) (llm.Adapter, error) {
	return f(ctx, request)
}

func TestService_RateLimit(t *testing.T) {
	adapter := &scripted{text: "ok"}
	service := New(&factory{adapter: adapter}, WithRateLimit(llm.InferenceOpenAI, 0.001, 1), WithEvents(nil))
	_, err := service.Dispatch(context.Background(), newRequest(llm.InferenceOpenAI, true))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = service.Dispatch(ctx, newRequest(llm.InferenceOpenAI, true))
	assert.EqualValues(t, llm.KindRateLimited, llm.KindOf(err))
	assert.Len(t, adapter.attempts, 1)
}

func TestService_Events(t *testing.T) {
	collector := &log.Collector{}
	events := collector.Subscribe(20)
	adapter := &scripted{errs: []error{throttled()}, text: `[{"a": 1}]`}
	service := New(&factory{adapter: adapter}, WithSleep(noSleep), WithEvents(collector),
		WithRetryPolicy(llm.InferenceBedrock, retry.Policy{MaxRetries: 1}))
	service.newID = func() string { return "req-1" }

	_, err := service.Dispatch(context.Background(), newRequest(llm.InferenceBedrock, false))
	require.NoError(t, err)

	var actual []log.EventType
	for len(events) > 0 {
		event := <-events
		assert.EqualValues(t, "req-1", event.Payload.(*log.Dispatch).RequestID)
		actual = append(actual, event.EventType)
	}
	assert.EqualValues(t, []log.EventType{
		log.DispatchStart, log.Attempt, log.Retry, log.Attempt, log.Recovery, log.DispatchEnd,
	}, actual)
}

func TestService_Probe(t *testing.T) {
	service := New(&factory{adapter: &scripted{}}, WithEvents(nil))
	assert.True(t, service.Probe(context.Background(), newRequest(llm.InferenceOpenAI, false)))
	service = New(&factory{err: llm.NewError(llm.KindCredential, "missing")}, WithEvents(nil))
	assert.False(t, service.Probe(context.Background(), newRequest(llm.InferenceOpenAI, false)))
}
