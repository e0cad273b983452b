// Package recovery extracts structured records from free-form model output.
//
// Models asked for a JSON array frequently wrap it in prose, use python style
// quoting, leave trailing commas or get truncated. The Engine runs an ordered
// chain of pure parsing stages and stops at the first one that succeeds; the
// final stage always succeeds, so callers always receive a sequence.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/llmdispatch/genai/llm"
)

// TextKey holds the original text (or a non-object array item) when no structure could be recovered.
const TextKey = "text"

var (
	errNoBoundary     = errors.New("no array boundary")
	errNotCollection  = errors.New("value is neither array nor object")
	errNothingSalvage = errors.New("no salvageable pattern")
)

// Parser is a single pure parsing strategy: text in, records out.
// An error passes control to the next stage.
type Parser func(text string) ([]llm.Record, error)

// Stage is a named Parser.
type Stage struct {
	Name  string
	Parse Parser
}

// Engine coordinates the recovery chain.
type Engine struct {
	stages []Stage
	logger *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for uninterpretable input.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStages replaces the default chain.
func WithStages(stages ...Stage) Option {
	return func(e *Engine) { e.stages = stages }
}

// DefaultStages returns the chain in evaluation order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: StageDirect, Parse: ParseDirect},
		{Name: StageBoundary, Parse: ParseBoundary},
		{Name: StageLiteral, Parse: ParseLiteral},
		{Name: StageNormalized, Parse: ParseNormalized},
		{Name: StageSalvage, Parse: Salvage},
		{Name: StageWrap, Parse: Wrap},
	}
}

// New creates an Engine with the default chain.
func New(options ...Option) *Engine {
	ret := &Engine{stages: DefaultStages(), logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

var defaultEngine = New()

// Recover runs the default chain over text.
func Recover(text string) []llm.Record {
	return defaultEngine.Recover(text)
}

// Recover returns the records produced by the first successful stage.
func (e *Engine) Recover(text string) []llm.Record {
	records, _ := e.Trace(text)
	return records
}

// Trace is Recover that also names the stage that produced the result.
func (e *Engine) Trace(text string) ([]llm.Record, string) {
	for _, stage := range e.stages {
		records, err := stage.Parse(text)
		if err != nil {
			continue
		}
		if records == nil {
			records = []llm.Record{}
		}
		return records, stage.Name
	}
	return []llm.Record{}, ""
}

// RecoverValue accepts already decoded values: text is run through the chain,
// arrays and objects are normalised, anything else yields an empty sequence.
func (e *Engine) RecoverValue(value interface{}) []llm.Record {
	switch actual := value.(type) {
	case string:
		return e.Recover(actual)
	case []byte:
		return e.Recover(string(actual))
	case []llm.Record:
		return actual
	case llm.Record:
		return []llm.Record{actual}
	case []interface{}, map[string]interface{}:
		if records, err := normalize(actual); err == nil {
			return records
		}
	}
	e.logger.Warn("unable to recover records", "type", fmt.Sprintf("%T", value))
	return []llm.Record{}
}

// normalize converts a decoded array or object into records.
func normalize(value interface{}) ([]llm.Record, error) {
	switch actual := value.(type) {
	case []interface{}:
		ret := make([]llm.Record, 0, len(actual))
		for _, item := range actual {
			if m, ok := item.(map[string]interface{}); ok {
				ret = append(ret, llm.Record(m))
				continue
			}
			ret = append(ret, llm.Record{TextKey: item})
		}
		return ret, nil
	case map[string]interface{}:
		return []llm.Record{llm.Record(actual)}, nil
	}
	return nil, errNotCollection
}
