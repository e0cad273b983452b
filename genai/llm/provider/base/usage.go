package base

import "github.com/viant/llmdispatch/genai/llm"

// UsageListener is a callback used by adapters to report token usage
// for each successful request. A struct can implement its own OnUsage method
// and be converted to UsageListener by using its method value.
type UsageListener func(model string, usage *llm.Usage)

// OnUsage makes a nil listener safe to call.
func (f UsageListener) OnUsage(model string, usage *llm.Usage) {
	if f == nil || usage == nil {
		return
	}
	f(model, usage)
}
