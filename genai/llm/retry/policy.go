// Package retry wraps adapter calls with a retry policy expressed as data:
// a retry budget, an exponential backoff schedule and a per attempt
// parameter transform used for degraded-parameter retries.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/viant/llmdispatch/genai/llm"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 3 * time.Second
	DefaultMultiplier = 1.5
)

// DefaultTokenCeilings are the output ceilings applied on the first and second
// retry after a token budget validation failure.
var DefaultTokenCeilings = []int{4096, 2048}

// Transform derives parameters for the next attempt; retry is the 0-indexed
// retry about to be performed and cause the error of the failed attempt.
type Transform func(retry int, cause error, params llm.Parameters) llm.Parameters

// Policy describes how a logical call is retried.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	Transform  Transform
}

// ManagedCloud is the policy of the managed cloud adapter: two retries,
// 3s * 1.5^n backoff and token ceiling degradation.
func ManagedCloud() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
		Transform:  TokenCeilings(DefaultTokenCeilings...),
	}
}

// NoRetry performs a single attempt.
func NoRetry() Policy {
	return Policy{}
}

// Attempts returns the total number of attempts allowed.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Schedule returns the delay before each retry.
func (p Policy) Schedule() []time.Duration {
	var ret []time.Duration
	b := p.backOff()
	for i := 0; i < p.MaxRetries; i++ {
		ret = append(ret, b.NextBackOff())
	}
	return ret
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	ret := backoff.NewExponentialBackOff()
	ret.InitialInterval = p.BaseDelay
	ret.RandomizationFactor = 0
	ret.Multiplier = p.Multiplier
	if ret.Multiplier < 1 {
		ret.Multiplier = 1
	}
	ret.MaxInterval = time.Duration(1<<63 - 1)
	ret.Reset()
	return ret
}

// TokenCeilings caps max tokens at ceilings[retry] when the previous attempt
// failed on its token budget. Other failures keep the parameters unchanged.
func TokenCeilings(ceilings ...int) Transform {
	return func(retry int, cause error, params llm.Parameters) llm.Parameters {
		if llm.KindOf(cause) != llm.KindTokenBudget || retry < 0 || retry >= len(ceilings) {
			return params
		}
		if ceiling := ceilings[retry]; ceiling > 0 && (params.MaxTokens == 0 || ceiling < params.MaxTokens) {
			return params.WithMaxTokens(ceiling)
		}
		return params
	}
}
