package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
)

const documentVersion = "1.0"

type document struct {
	Version   string               `json:"version"`
	Endpoints map[string]*Endpoint `json:"endpoints"`
}

// Registry persists endpoints in a JSON document at URL (any afs location).
type Registry struct {
	fs     afs.Service
	URL    string
	mux    sync.RWMutex
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a registry; the document is created lazily on first write.
func New(URL string, options ...Option) *Registry {
	ret := &Registry{fs: afs.New(), URL: URL, now: time.Now, logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Add registers endpoint and returns its key; a duplicate key is an error.
func (r *Registry) Add(ctx context.Context, endpoint *Endpoint) (string, error) {
	endpoint.Init()
	if err := endpoint.Validate(); err != nil {
		return "", err
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	doc, err := r.load(ctx)
	if err != nil {
		return "", err
	}
	key := endpoint.Key()
	if _, ok := doc.Endpoints[key]; ok {
		return "", fmt.Errorf("endpoint for model '%v' with provider '%v' already exists", endpoint.ModelID, endpoint.ProviderType)
	}
	if endpoint.ID == "" {
		endpoint.ID = uuid.New().String()
	}
	timestamp := r.timestamp()
	endpoint.CreatedAt, endpoint.UpdatedAt = timestamp, timestamp
	doc.Endpoints[key] = endpoint
	if err = r.save(ctx, doc); err != nil {
		return "", err
	}
	r.logger.Info("endpoint added", "key", key, "endpoint_id", endpoint.ID)
	return key, nil
}

// Get returns the endpoint for (modelID, providerType) or nil when not registered.
func (r *Registry) Get(ctx context.Context, modelID, providerType string) (*Endpoint, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Endpoints[Key(modelID, providerType)], nil
}

// List returns all endpoints ordered by key.
func (r *Registry) List(ctx context.Context) ([]*Endpoint, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Endpoints))
	for key := range doc.Endpoints {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ret := make([]*Endpoint, 0, len(keys))
	for _, key := range keys {
		ret = append(ret, doc.Endpoints[key])
	}
	return ret, nil
}

// ListByProvider returns endpoints of one provider type.
func (r *Registry) ListByProvider(ctx context.Context, providerType string) ([]*Endpoint, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var ret []*Endpoint
	for _, candidate := range all {
		if candidate.ProviderType == providerType {
			ret = append(ret, candidate)
		}
	}
	return ret, nil
}

// Update replaces an existing endpoint; it reports false when the key is not registered.
func (r *Registry) Update(ctx context.Context, modelID, providerType string, endpoint *Endpoint) (bool, error) {
	endpoint.Init()
	if err := endpoint.Validate(); err != nil {
		return false, err
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	doc, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	key := Key(modelID, providerType)
	prev, ok := doc.Endpoints[key]
	if !ok {
		return false, nil
	}
	if endpoint.ID == "" {
		endpoint.ID = prev.ID
	}
	endpoint.CreatedAt = prev.CreatedAt
	endpoint.UpdatedAt = r.timestamp()
	delete(doc.Endpoints, key)
	doc.Endpoints[endpoint.Key()] = endpoint
	return true, r.save(ctx, doc)
}

// Delete removes an endpoint; it reports false when the key is not registered.
func (r *Registry) Delete(ctx context.Context, modelID, providerType string) (bool, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	doc, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	key := Key(modelID, providerType)
	if _, ok := doc.Endpoints[key]; !ok {
		return false, nil
	}
	delete(doc.Endpoints, key)
	return true, r.save(ctx, doc)
}

// Stats counts endpoints per provider type.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := &Stats{TotalEndpoints: len(all), ProviderCounts: map[string]int{}, Models: []string{}}
	for _, candidate := range all {
		ret.ProviderCounts[candidate.ProviderType]++
		ret.Models = append(ret.Models, fmt.Sprintf("%v (%v)", candidate.ModelID, candidate.ProviderType))
	}
	return ret, nil
}

func (r *Registry) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

func (r *Registry) load(ctx context.Context) (*document, error) {
	ret := &document{Version: documentVersion, Endpoints: map[string]*Endpoint{}}
	if r.URL == "" {
		return ret, nil
	}
	exists, err := r.fs.Exists(ctx, r.URL)
	if err != nil || !exists {
		return ret, nil
	}
	data, err := r.fs.DownloadWithURL(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom endpoints %v: %w", r.URL, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ret, nil
	}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse custom endpoints %v: %w", r.URL, err)
	}
	if ret.Endpoints == nil {
		ret.Endpoints = map[string]*Endpoint{}
	}
	return ret, nil
}

func (r *Registry) save(ctx context.Context, doc *document) error {
	if r.URL == "" {
		return fmt.Errorf("custom endpoints location was empty")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err = r.fs.Upload(ctx, r.URL, 0644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save custom endpoints %v: %w", r.URL, err)
	}
	return nil
}
