package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// File reads a flat JSON object of credential keys, loaded once on first lookup.
type File struct {
	fs     afs.Service
	URL    string
	once   sync.Once
	values Static
	err    error
}

func NewFile(URL string) *File {
	return &File{fs: afs.New(), URL: URL}
}

func (f *File) Lookup(ctx context.Context, key string) (string, bool, error) {
	f.once.Do(func() { f.values, f.err = f.load(ctx) })
	if f.err != nil {
		return "", false, f.err
	}
	return f.values.Lookup(ctx, key)
}

func (f *File) load(ctx context.Context) (Static, error) {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return Static{}, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials %v: %w", f.URL, err)
	}
	ret := Static{}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("invalid credentials %v: %w", f.URL, err)
	}
	return ret, nil
}
