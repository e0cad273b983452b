package llm

// Usage reports token consumption of a single successful invocation.
type Usage struct {
	PromptTokens     int `json:"promptTokens,omitempty" yaml:"promptTokens,omitempty"`
	CompletionTokens int `json:"completionTokens,omitempty" yaml:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens,omitempty" yaml:"totalTokens,omitempty"`
}

// Add accumulates other into u.
func (u *Usage) Add(other *Usage) {
	if u == nil || other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
