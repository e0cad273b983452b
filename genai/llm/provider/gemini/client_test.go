package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/llmdispatch/genai/llm"
)

func TestClient_Invoke(t *testing.T) {
	var request Request
	var path, key string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &request)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"score\": 4, \"justification\": \"ok\"}]"}]}}],
"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":5,"totalTokenCount":7}}`))
	}))
	defer server.Close()

	var usage *llm.Usage
	client := NewClient("g-key", "gemini-2.5-flash", WithBaseURL(server.URL+"/v1beta/models"),
		WithUsageListener(func(model string, u *llm.Usage) { usage = u }))
	text, err := client.Invoke(context.Background(), "prompt", llm.DefaultParameters())
	require.NoError(t, err)
	assert.EqualValues(t, `[{"score": 4, "justification": "ok"}]`, text)
	assert.EqualValues(t, "/v1beta/models/gemini-2.5-flash:generateContent", path)
	assert.EqualValues(t, "g-key", key)
	require.NotNil(t, request.GenerationConfig)
	assert.EqualValues(t, 0.0, *request.GenerationConfig.Temperature)
	assert.EqualValues(t, 8192, request.GenerationConfig.MaxOutputTokens)
	assert.EqualValues(t, 150, request.GenerationConfig.TopK)
	assert.EqualValues(t, "prompt", request.Contents[0].Parts[0].Text)
	assert.EqualValues(t, &llm.Usage{PromptTokens: 2, CompletionTokens: 5, TotalTokens: 7}, usage)
}

func TestClient_InvokeErrors(t *testing.T) {
	testCases := []struct {
		description string
		status      int
		body        string
		apiKey      string
		expected    llm.Kind
	}{
		{description: "missing key", apiKey: "", expected: llm.KindCredential},
		{description: "forbidden", apiKey: "k", status: http.StatusForbidden, body: `{"error":{"code":403,"message":"API key not valid"}}`, expected: llm.KindCredential},
		{description: "unknown model", apiKey: "k", status: http.StatusNotFound, body: `{"error":{"code":404,"message":"models/gemini-x is not found"}}`, expected: llm.KindInvalidModel},
		{description: "quota", apiKey: "k", status: http.StatusTooManyRequests, body: `{"error":{"code":429,"message":"Resource has been exhausted"}}`, expected: llm.KindRateLimited},
		{description: "malformed", apiKey: "k", status: http.StatusOK, body: `{"candidates":[]}`, expected: llm.KindMalformed},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()
			client := NewClient(tc.apiKey, "gemini-x", WithBaseURL(server.URL))
			_, err := client.Invoke(context.Background(), "prompt", llm.DefaultParameters())
			assert.EqualValues(t, tc.expected, llm.KindOf(err))
			assert.False(t, client.Probe(context.Background()))
		})
	}
}

func TestClient_Rebuild(t *testing.T) {
	client := NewClient("k", "gemini-x")
	previous := client.HTTPClient
	require.NoError(t, client.Rebuild(context.Background()))
	assert.NotSame(t, previous, client.HTTPClient)

	custom := &http.Client{}
	injected := NewClient("k", "gemini-x", WithHTTPClient(custom))
	require.NoError(t, injected.Rebuild(context.Background()))
	assert.Same(t, custom, injected.HTTPClient)
}

func TestToRequest_MaxTokens(t *testing.T) {
	testCases := []struct {
		description string
		params      llm.Parameters
		expected    int
	}{
		{description: "explicit", params: llm.DefaultParameters().WithMaxTokens(512), expected: 512},
		{description: "unset falls back to default", params: llm.Parameters{TopP: 1}, expected: llm.DefaultMaxTokens},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			request := ToRequest("prompt", tc.params)
			assert.EqualValues(t, tc.expected, request.GenerationConfig.MaxOutputTokens)
		})
	}
}
