package recovery

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/llmdispatch/genai/llm"
)

func TestEngine_Trace(t *testing.T) {
	testCases := []struct {
		description string
		text        string
		expected    []llm.Record
		stage       string
	}{
		{
			description: "valid array round trip",
			text:        `[{"question": "Q1", "solution": "S1"}, {"question": "Q2", "solution": "S2"}]`,
			expected: []llm.Record{
				{"question": "Q1", "solution": "S1"},
				{"question": "Q2", "solution": "S2"},
			},
			stage: StageDirect,
		},
		{
			description: "single object normalised to one element",
			text:        `{"score": 3, "justification": "fine"}`,
			expected:    []llm.Record{{"score": 3.0, "justification": "fine"}},
			stage:       StageDirect,
		},
		{
			description: "json scalar yields empty sequence",
			text:        `42`,
			expected:    []llm.Record{},
			stage:       StageDirect,
		},
		{
			description: "prose around array",
			text:        `Here is your data: [{"score": 4, "justification": "ok"}] Hope this helps!`,
			expected:    []llm.Record{{"score": 4.0, "justification": "ok"}},
			stage:       StageBoundary,
		},
		{
			description: "single quoted keys",
			text:        `[{'question': 'Q1', 'solution': 'S1'}]`,
			expected:    []llm.Record{{"question": "Q1", "solution": "S1"}},
			stage:       StageLiteral,
		},
		{
			description: "python constants and trailing commas",
			text:        "Result:\n[{'question': 'Is it?', 'solution': None, 'valid': True,},]",
			expected:    []llm.Record{{"question": "Is it?", "solution": nil, "valid": true}},
			stage:       StageLiteral,
		},
		{
			description: "mixed quoting no structural stage accepts is salvaged",
			text:        "[{\"question\": \"Q1\",\n \"solution\": 'S1'}, {\"question\": \"Q2\", \"solution\": \"S2\"} ,\t{\"question\": 'Q3' \"x\": 1}]",
			expected:    []llm.Record{{"question": "Q2", "solution": "S2"}},
			stage:       StageSalvage,
		},
		{
			description: "json constants with single quotes recovered by normalisation",
			text:        `[{'question': 'line\nbreak', 'done': false}]`,
			expected:    []llm.Record{{"question": "line break", "done": false}},
			stage:       StageNormalized,
		},
		{
			description: "score pattern without enclosing array",
			text:        `The grade is "score": 5, "justification": "great" overall`,
			expected:    []llm.Record{{"score": 5.0, "justification": "great"}},
			stage:       StageSalvage,
		},
		{
			description: "truncated array salvages complete pairs",
			text:        `[{"question": "What is Go?", "solution": "A language"}, {"question": "Why", "solu`,
			expected:    []llm.Record{{"question": "What is Go?", "solution": "A language"}},
			stage:       StageSalvage,
		},
		{
			description: "score pairs precede question pairs",
			text:        `"question": "Q", "solution": "S" and "score": 2.5, "justification": " meh "`,
			expected: []llm.Record{
				{"score": 2.5, "justification": "meh"},
				{"question": "Q", "solution": "S"},
			},
			stage: StageSalvage,
		},
		{
			description: "salvage cuts at the first embedded quote",
			text:        `"score": 1, "justification": "said \"no\" twice"`,
			expected:    []llm.Record{{"score": 1.0, "justification": `said \`}},
			stage:       StageSalvage,
		},
		{
			description: "plain prose wrapped",
			text:        "I cannot help with that.",
			expected:    []llm.Record{{"text": "I cannot help with that."}},
			stage:       StageWrap,
		},
		{
			description: "empty text wrapped",
			text:        "",
			expected:    []llm.Record{{"text": ""}},
			stage:       StageWrap,
		},
		{
			description: "greedy outer boundary keeps multi part array",
			text:        `first [{"a": 1}] then [{"b": 2}]`,
			expected:    []llm.Record{{"text": `first [{"a": 1}] then [{"b": 2}]`}},
			stage:       StageWrap,
		},
		{
			description: "non object items are wrapped",
			text:        `["x", 2]`,
			expected:    []llm.Record{{"text": "x"}, {"text": 2.0}},
			stage:       StageDirect,
		},
		{
			description: "nested arrays inside outer boundary",
			text:        `Sure! [{"question": "Q", "solution": "S", "tags": ["a", "b"]}] done`,
			expected:    []llm.Record{{"question": "Q", "solution": "S", "tags": []interface{}{"a", "b"}}},
			stage:       StageBoundary,
		},
	}

	engine := New()
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, stage := engine.Trace(tc.text)
			assert.EqualValues(t, tc.expected, actual)
			assert.EqualValues(t, tc.stage, stage)
		})
	}
}

func TestEngine_RecoverValue(t *testing.T) {
	buffer := bytes.Buffer{}
	engine := New(WithLogger(slog.New(slog.NewTextHandler(&buffer, nil))))

	testCases := []struct {
		description string
		value       interface{}
		expected    []llm.Record
	}{
		{description: "string", value: `[{"a": 1}]`, expected: []llm.Record{{"a": 1.0}}},
		{description: "bytes", value: []byte(`{"a": 1}`), expected: []llm.Record{{"a": 1.0}}},
		{description: "decoded list", value: []interface{}{map[string]interface{}{"a": "b"}}, expected: []llm.Record{{"a": "b"}}},
		{description: "decoded object", value: map[string]interface{}{"a": "b"}, expected: []llm.Record{{"a": "b"}}},
		{description: "integer", value: 42, expected: []llm.Record{}},
		{description: "nil", value: nil, expected: []llm.Record{}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.EqualValues(t, tc.expected, engine.RecoverValue(tc.value))
		})
	}
	assert.Contains(t, buffer.String(), "unable to recover records")
}

func TestEngine_CustomStages(t *testing.T) {
	engine := New(WithStages(Stage{Name: StageSalvage, Parse: Salvage}))
	records, stage := engine.Trace("nothing here")
	assert.EqualValues(t, []llm.Record{}, records)
	assert.EqualValues(t, "", stage)
}

func TestRecover_NeverPanics(t *testing.T) {
	inputs := []string{
		"[", "]", "][", "[[[", `[{"a": }]`, "['unterminated", `[{'a': 0x1F, 'b': -1e3, 'c': (1, 2)}]`,
		"[{'a': '\\u00e9'}]", `{"a": [1, 2`, "[1, 2,, 3]", "\x00\xff[",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			records := Recover(input)
			assert.NotNil(t, records)
		}, input)
	}
}
