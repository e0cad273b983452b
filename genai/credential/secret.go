package credential

import (
	"context"

	"github.com/viant/scy/cred/secret"
)

// Secrets maps credential keys to scy secret resource URLs.
type Secrets struct {
	service *secret.Service
	urls    map[string]string
}

// NewSecrets creates a scy backed source; keys without a URL are missing.
func NewSecrets(urls map[string]string) *Secrets {
	return &Secrets{service: secret.New(), urls: urls}
}

func (s *Secrets) Lookup(ctx context.Context, key string) (string, bool, error) {
	URL, ok := s.urls[key]
	if !ok || URL == "" {
		return "", false, nil
	}
	resource, err := s.service.GeyKey(ctx, URL)
	if err != nil {
		return "", false, err
	}
	if resource.Secret == "" {
		return "", false, nil
	}
	return resource.Secret, true, nil
}
