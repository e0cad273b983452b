package recovery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/viant/llmdispatch/genai/llm"
)

// String bodies are matched with [^"]*, so a value stops at its first embedded
// double quote (escaped or not). Downstream consumers rely on that cut point.
var (
	scorePattern    = regexp.MustCompile(`"score":\s*(\d+\.?\d*),\s*"justification":\s*"([^"]*)"`)
	questionPattern = regexp.MustCompile(`"question":\s*"([^"]*)",\s*"solution":\s*"([^"]*)"`)
)

// Salvage collects score/justification pairs followed by question/solution
// pairs found anywhere in the text.
func Salvage(text string) ([]llm.Record, error) {
	var ret []llm.Record
	for _, match := range scorePattern.FindAllStringSubmatch(text, -1) {
		score, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		ret = append(ret, llm.Record{
			"score":         score,
			"justification": strings.TrimSpace(match[2]),
		})
	}
	for _, match := range questionPattern.FindAllStringSubmatch(text, -1) {
		ret = append(ret, llm.Record{
			"question": strings.TrimSpace(match[1]),
			"solution": strings.TrimSpace(match[2]),
		})
	}
	if len(ret) == 0 {
		return nil, errNothingSalvage
	}
	return ret, nil
}
