package caii

import (
	"context"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/viant/afs"
	"github.com/viant/llmdispatch/genai/llm"
)

const (
	// TokenEnv holds a bearer token taking precedence over the token file.
	TokenEnv = "CDP_TOKEN"

	DefaultTokenFile = "/tmp/jwt"

	accessTokenField = "access_token"
)

// TokenSource reads the cluster bearer token from the environment or a cached JSON token file.
type TokenSource struct {
	fs   afs.Service
	env  string
	file string
}

// NewTokenSource creates a token source for file, DefaultTokenFile when empty.
func NewTokenSource(file string) *TokenSource {
	if file == "" {
		file = DefaultTokenFile
	}
	return &TokenSource{fs: afs.New(), env: TokenEnv, file: file}
}

// File returns the token file location.
func (s *TokenSource) File() string {
	return s.file
}

// Token returns the bearer token. A missing, malformed or incomplete token
// file is a CredentialMissing error.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(os.Getenv(s.env)); token != "" {
		return token, nil
	}
	exists, err := s.fs.Exists(ctx, s.file)
	if err != nil || !exists {
		return "", s.error("token file " + s.file + " not found")
	}
	data, err := s.fs.DownloadWithURL(ctx, s.file)
	if err != nil {
		return "", llm.Wrap(llm.KindCredential, err).WithProvider(Provider)
	}
	if !gjson.ValidBytes(data) {
		return "", s.error("token file " + s.file + " is not valid JSON")
	}
	token := gjson.GetBytes(data, accessTokenField)
	if !token.Exists() || strings.TrimSpace(token.String()) == "" {
		return "", s.error("token file " + s.file + " has no " + accessTokenField)
	}
	return token.String(), nil
}

func (s *TokenSource) error(message string) *llm.Error {
	return llm.NewError(llm.KindCredential, message).WithProvider(Provider)
}
