// Package usage accumulates token usage reported by adapters.
package usage

import (
	"sort"
	"sync"

	"github.com/viant/llmdispatch/genai/llm"
)

// Stat accumulates token numbers for a single model.
type Stat struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Aggregator collects usage grouped by model name; it is safe for concurrent use.
type Aggregator struct {
	mux      sync.RWMutex
	perModel map[string]*Stat
}

// OnUsage matches base.UsageListener so the aggregator can be passed to adapters.
func (a *Aggregator) OnUsage(model string, u *llm.Usage) {
	if u == nil {
		return
	}
	a.mux.Lock()
	defer a.mux.Unlock()
	if a.perModel == nil {
		a.perModel = map[string]*Stat{}
	}
	stat, ok := a.perModel[model]
	if !ok {
		stat = &Stat{}
		a.perModel[model] = stat
	}
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	stat.Calls++
	stat.PromptTokens += u.PromptTokens
	stat.CompletionTokens += u.CompletionTokens
	stat.TotalTokens += total
}

// Totals returns usage summed across all models.
func (a *Aggregator) Totals() *llm.Usage {
	a.mux.RLock()
	defer a.mux.RUnlock()
	ret := &llm.Usage{}
	for _, stat := range a.perModel {
		ret.Add(&llm.Usage{PromptTokens: stat.PromptTokens, CompletionTokens: stat.CompletionTokens, TotalTokens: stat.TotalTokens})
	}
	return ret
}

// Snapshot returns a copy of the per model stats.
func (a *Aggregator) Snapshot() map[string]Stat {
	a.mux.RLock()
	defer a.mux.RUnlock()
	ret := make(map[string]Stat, len(a.perModel))
	for model, stat := range a.perModel {
		ret[model] = *stat
	}
	return ret
}

// Keys returns sorted list of model names.
func (a *Aggregator) Keys() []string {
	a.mux.RLock()
	defer a.mux.RUnlock()
	keys := make([]string, 0, len(a.perModel))
	for k := range a.perModel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
