package credential

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/llmdispatch/genai/llm"
)

type failing struct{}

func (failing) Lookup(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("vault unavailable")
}

func TestChain_Lookup(t *testing.T) {
	t.Setenv(KeyOpenAI, "ambient")
	testCases := []struct {
		description string
		chain       Chain
		expected    string
		found       bool
	}{
		{description: "override wins", chain: Chain{Static{KeyOpenAI: "override"}, Static{KeyOpenAI: "registry"}, Env{}}, expected: "override", found: true},
		{description: "registry before env", chain: Chain{Static{}, Static{KeyOpenAI: "registry"}, Env{}}, expected: "registry", found: true},
		{description: "ambient env", chain: Chain{Static{KeyOpenAI: ""}, nil, Env{}}, expected: "ambient", found: true},
		{description: "missing", chain: Chain{Static{}}, found: false},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			value, ok, err := tc.chain.Lookup(context.Background(), KeyOpenAI)
			require.NoError(t, err)
			assert.EqualValues(t, tc.found, ok)
			assert.EqualValues(t, tc.expected, value)
		})
	}
}

func TestRequire(t *testing.T) {
	value, err := Require(context.Background(), Static{KeyGemini: "g"}, KeyGemini)
	require.NoError(t, err)
	assert.EqualValues(t, "g", value)

	_, err = Require(context.Background(), Static{}, KeyGemini)
	assert.EqualValues(t, llm.KindCredential, llm.KindOf(err))

	_, err = Require(context.Background(), failing{}, KeyGemini)
	assert.EqualValues(t, llm.KindCredential, llm.KindOf(err))
}

func TestStatusOf(t *testing.T) {
	status := StatusOf(context.Background(), Static{KeyCDPToken: "t", KeyAWSRegion: "us-east-1"})
	require.Len(t, status, len(Keys))
	assert.EqualValues(t, Status{Key: KeyCDPToken, IsSet: true}, status[0])
	assert.EqualValues(t, Status{Key: KeyOpenAI, IsSet: false}, status[1])
	assert.EqualValues(t, Status{Key: KeyAWSRegion, IsSet: true}, status[6])
}

func TestAPIKeyFor(t *testing.T) {
	assert.EqualValues(t, KeyOpenAI, APIKeyFor(llm.InferenceOpenAI))
	assert.EqualValues(t, KeyGemini, APIKeyFor(llm.InferenceGemini))
	assert.EqualValues(t, KeyOpenAICompatible, APIKeyFor(llm.InferenceOpenAICompatible))
	assert.EqualValues(t, KeyCDPToken, APIKeyFor(llm.InferenceCAII))
	assert.EqualValues(t, "", APIKeyFor(llm.InferenceBedrock))
}

func TestFile_Lookup(t *testing.T) {
	location := path.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(location, []byte(`{"OPENAI_API_KEY": "from-file"}`), 0600))
	value, ok, err := NewFile(location).Lookup(context.Background(), KeyOpenAI)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, "from-file", value)

	_, ok, err = NewFile(path.Join(t.TempDir(), "absent.json")).Lookup(context.Background(), KeyOpenAI)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = NewSecrets(nil).Lookup(context.Background(), KeyOpenAI)
	assert.False(t, ok)
}
