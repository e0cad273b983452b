// Package dispatch is the single entry point for inference calls: it selects
// the adapter for a request, wraps it in the retry policy of its inference
// type and turns the model output into raw text or recovered records.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/llmdispatch/genai/llm"
	"github.com/viant/llmdispatch/genai/llm/recovery"
	"github.com/viant/llmdispatch/genai/llm/retry"
	"github.com/viant/llmdispatch/internal/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const DefaultConcurrency = 5

// Factory creates the adapter for a request.
type Factory interface {
	CreateAdapter(ctx context.Context, request *llm.Request) (llm.Adapter, error)
}

// Service dispatches requests with at most Concurrency adapter calls in flight.
type Service struct {
	factory     Factory
	concurrency int
	gate        *semaphore.Weighted
	limiters    map[llm.InferenceType]*rate.Limiter
	policies    map[llm.InferenceType]retry.Policy
	sleep       retry.SleepFunc
	recovery    *recovery.Engine
	events      *log.Collector
	logger      *slog.Logger
	newID       func() string
}

type Option func(*Service)

// WithConcurrency caps simultaneous adapter calls.
func WithConcurrency(concurrency int) Option {
	return func(s *Service) {
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// WithRateLimit caps requests per second for one inference type.
func WithRateLimit(inferenceType llm.InferenceType, perSecond float64, burst int) Option {
	return func(s *Service) {
		if burst < 1 {
			burst = 1
		}
		s.limiters[inferenceType] = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryPolicy sets the policy of one inference type; others perform a single attempt.
func WithRetryPolicy(inferenceType llm.InferenceType, policy retry.Policy) Option {
	return func(s *Service) { s.policies[inferenceType] = policy }
}

func WithSleep(sleep retry.SleepFunc) Option {
	return func(s *Service) { s.sleep = sleep }
}

func WithRecovery(engine *recovery.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.recovery = engine
		}
	}
}

// WithEvents publishes lifecycle events to collector; nil disables events.
func WithEvents(collector *log.Collector) Option {
	return func(s *Service) { s.events = collector }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a service; managed cloud requests use retry.ManagedCloud by default.
func New(factory Factory, options ...Option) *Service {
	ret := &Service{
		factory:     factory,
		concurrency: DefaultConcurrency,
		limiters:    map[llm.InferenceType]*rate.Limiter{},
		policies:    map[llm.InferenceType]retry.Policy{llm.InferenceBedrock: retry.ManagedCloud()},
		sleep:       retry.Sleep,
		events:      log.Default,
		logger:      slog.Default(),
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.recovery == nil {
		ret.recovery = recovery.New(recovery.WithLogger(ret.logger))
	}
	ret.gate = semaphore.NewWeighted(int64(ret.concurrency))
	return ret
}

// Concurrency returns the admission limit.
func (s *Service) Concurrency() int {
	return s.concurrency
}

// NewHandler validates request and binds it to a freshly created adapter.
func (s *Service) NewHandler(ctx context.Context, request *llm.Request) (*Handler, error) {
	if err := request.Validate(); err != nil {
		ret := llm.AsError(err)
		if request != nil {
			ret.WithProvider(request.Type.String()).WithModel(request.Model)
		}
		return nil, ret
	}
	adapter, err := s.factory.CreateAdapter(ctx, request)
	if err != nil {
		return nil, llm.AsError(err)
	}
	ret := &Handler{
		ID:       s.newID(),
		request:  *request,
		adapter:  &gated{Adapter: adapter, gate: s.gate, limiter: s.limiters[request.Type]},
		recovery: s.recovery,
		events:   s.events,
	}
	ret.request.Parameters.Init()
	ret.logger = s.logger.With("request_id", ret.ID, "provider", request.Type.String(), "model", request.Model)
	policy, ok := s.policies[request.Type]
	if !ok {
		policy = retry.NoRetry()
	}
	ret.controller = retry.New(policy,
		retry.WithSleep(s.sleep),
		retry.WithLogger(ret.logger),
		retry.WithObserver(ret.observe))
	return ret, nil
}

// Dispatch performs one inference call.
func (s *Service) Dispatch(ctx context.Context, request *llm.Request) (*llm.Result, error) {
	handler, err := s.NewHandler(ctx, request)
	if err != nil {
		return nil, err
	}
	return handler.Handle(ctx)
}

// Outcome is the result of one request of a batch; Index is its position in the input.
type Outcome struct {
	Index  int
	Result *llm.Result
	Err    error
}

// DispatchAll runs requests concurrently. Outcomes are returned in input order;
// onDone, when set, observes them in completion order.
func (s *Service) DispatchAll(ctx context.Context, requests []*llm.Request, onDone func(outcome *Outcome)) []*Outcome {
	ret := make([]*Outcome, len(requests))
	var mux sync.Mutex
	group := errgroup.Group{}
	for i, request := range requests {
		group.Go(func() error {
			outcome := &Outcome{Index: i}
			outcome.Result, outcome.Err = s.Dispatch(ctx, request)
			ret[i] = outcome
			if onDone != nil {
				mux.Lock()
				onDone(outcome)
				mux.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()
	return ret
}

// Probe reports whether the adapter of request is reachable.
func (s *Service) Probe(ctx context.Context, request *llm.Request) bool {
	adapter, err := s.factory.CreateAdapter(ctx, request)
	if err != nil {
		s.logger.Debug("probe skipped", "provider", request.Type.String(), "model", request.Model, "error", err)
		return false
	}
	return adapter.Probe(ctx)
}
