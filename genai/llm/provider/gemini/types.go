package gemini

// Request represents a generateContent request.
type Request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content represents a content in the Gemini API request
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a part in a content for the Gemini API
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig carries sampling parameters; temperature is a pointer so zero is sent.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            int      `json:"topK,omitempty"`
}
