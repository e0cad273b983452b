package llmdispatch

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	buffer := &bytes.Buffer{}
	previous := output
	output = buffer
	t.Cleanup(func() { output = previous })
	return buffer
}

func writeConfig(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("LLMDISPATCH_CONCURRENCY", "")
	t.Setenv("AWS_REGION", "")
	URL := filepath.Join(dir, "config.yaml")
	document := "concurrency: 2\nendpointsURL: " + filepath.Join(dir, "endpoints.json") + "\n"
	require.NoError(t, os.WriteFile(URL, []byte(document), 0644))
	return URL
}

func TestExtractConfigPath(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		expected    string
	}{
		{description: "short", args: []string{"-f", "a.yaml", "probe"}, expected: "a.yaml"},
		{description: "long with value", args: []string{"dispatch", "--config=b.yaml"}, expected: "b.yaml"},
		{description: "dangling", args: []string{"--config"}, expected: ""},
		{description: "none", args: []string{"probe"}, expected: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.EqualValues(t, tc.expected, extractConfigPath(tc.args))
		})
	}
}

func TestExecute_Version(t *testing.T) {
	buffer := capture(t)
	require.NoError(t, Execute([]string{"--version"}))
	assert.EqualValues(t, "dev\n", buffer.String())
}

func TestExecute_Endpoint(t *testing.T) {
	config := writeConfig(t)
	buffer := capture(t)

	require.NoError(t, Execute([]string{"endpoint", "-f", config, "add", "-m", "llama-3", "-t", "caii",
		"-e", "https://cluster/v1", "--cdp-token", "secret-token"}))
	assert.EqualValues(t, "llama-3:caii\n", buffer.String())

	assert.Error(t, Execute([]string{"endpoint", "-f", config, "add", "-m", "llama-3", "-t", "caii", "-e", "https://cluster/v1"}))

	buffer.Reset()
	require.NoError(t, Execute([]string{"endpoint", "-f", config, "list"}))
	assert.Contains(t, buffer.String(), `"cdp_token": "****"`)
	assert.NotContains(t, buffer.String(), "secret-token")

	buffer.Reset()
	require.NoError(t, Execute([]string{"endpoint", "-f", config, "stats"}))
	assert.Contains(t, buffer.String(), `"total_endpoints": 1`)
	assert.Contains(t, buffer.String(), `"llama-3 (caii)"`)

	require.NoError(t, Execute([]string{"endpoint", "-f", config, "delete", "-m", "llama-3", "-t", "caii"}))
	assert.Error(t, Execute([]string{"endpoint", "-f", config, "delete", "-m", "llama-3", "-t", "caii"}))
}

const completion = `{"id":"1","object":"chat.completion","created":1,"model":"local",
"choices":[{"index":0,"message":{"role":"assistant","content":"Sure: [{'question': 'Q1', 'solution': 'S1'}]"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`

func TestExecute_Dispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer compat-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer server.Close()
	config := writeConfig(t)
	eventLog := filepath.Join(t.TempDir(), "events.jsonl")
	t.Setenv("OpenAI_Endpoint_Compatible_Key", "compat-key")

	testCases := []struct {
		description string
		args        []string
		expected    string
	}{
		{
			description: "records",
			args:        []string{"-m", "local", "-p", "hello", "--log", eventLog},
			expected:    `"question": "Q1"`,
		},
		{
			description: "raw",
			args:        []string{"-m", "local", "-p", "hello", "--raw"},
			expected:    "Sure: [{'question': 'Q1', 'solution': 'S1'}]\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			buffer := capture(t)
			args := append([]string{"dispatch", "-f", config, "-t", "openai_compatible", "-e", server.URL + "/v1/chat/completions"}, tc.args...)
			require.NoError(t, Execute(args))
			assert.Contains(t, buffer.String(), tc.expected)
		})
	}
	buffer := capture(t)
	require.NoError(t, Execute([]string{"dispatch", "-f", config, "-t", "openai_compatible", "-e", server.URL + "/v1",
		"-m", "local", "-p", "hello", "--raw", "--usage"}))
	assert.Contains(t, buffer.String(), `"total_tokens": 7`)
	data, err := os.ReadFile(eventLog)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"eventtype":"DISPATCH_END"`))

	t.Setenv("OpenAI_Endpoint_Compatible_Key", "")
	err = Execute([]string{"dispatch", "-f", config, "-t", "openai_compatible", "-e", server.URL, "-m", "local", "-p", "hi"})
	assert.ErrorContains(t, err, "CredentialMissing")
}
