package recovery

import (
	"encoding/json"
	"strings"

	"github.com/viant/llmdispatch/genai/llm"
)

const (
	StageDirect     = "direct"
	StageBoundary   = "boundary"
	StageLiteral    = "literal"
	StageNormalized = "normalized"
	StageSalvage    = "salvage"
	StageWrap       = "wrap"
)

var cleaner = strings.NewReplacer(
	"\n", " ",
	`\n`, " ",
	"'", `"`,
	"\t", " ",
)

// ParseDirect decodes the whole text as JSON. A valid JSON scalar ends the
// chain with an empty sequence.
func ParseDirect(text string) ([]llm.Record, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	records, err := normalize(value)
	if err != nil {
		return []llm.Record{}, nil
	}
	return records, nil
}

// ParseBoundary decodes the span between the first '[' and the last ']'.
func ParseBoundary(text string) ([]llm.Record, error) {
	fragment, err := boundary(text)
	if err != nil {
		return nil, err
	}
	return decodeJSON(fragment)
}

// ParseLiteral evaluates the bracketed span as a python literal, which
// accepts single quoted strings, True/False/None and trailing commas.
func ParseLiteral(text string) ([]llm.Record, error) {
	fragment, err := boundary(text)
	if err != nil {
		return nil, err
	}
	value, err := parseLiteral(fragment)
	if err != nil {
		return nil, err
	}
	return normalize(value)
}

// ParseNormalized collapses newlines and tabs, rewrites single quotes to
// double quotes and decodes the bracketed span again.
func ParseNormalized(text string) ([]llm.Record, error) {
	fragment, err := boundary(text)
	if err != nil {
		return nil, err
	}
	return decodeJSON(strings.TrimSpace(cleaner.Replace(fragment)))
}

// Wrap returns the original text as a single record under TextKey.
func Wrap(text string) ([]llm.Record, error) {
	return []llm.Record{{TextKey: text}}, nil
}

// boundary uses the outermost span so nested or multi part arrays stay intact.
func boundary(text string) (string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end < start {
		return "", errNoBoundary
	}
	return text[start : end+1], nil
}

func decodeJSON(fragment string) ([]llm.Record, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(fragment), &value); err != nil {
		return nil, err
	}
	return normalize(value)
}
