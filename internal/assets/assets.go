// Package assets serves encoded body models by key.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Extension is the file suffix of model assets.
const Extension = ".glb"

// ErrModelNotFound is returned for keys with no asset.
var ErrModelNotFound = errors.New("assets: model not found")

// Directory serves <key>.glb files from a directory, caching each file after
// the first read.
type Directory struct {
	root string

	mu    sync.Mutex
	cache map[string][]byte
}

// NewDirectory returns a source rooted at dir.
func NewDirectory(dir string) *Directory {
	return &Directory{root: dir, cache: make(map[string][]byte)}
}

// Keys lists the available model keys in lexical order.
func (d *Directory) Keys() []string {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), Extension))
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key has an asset.
func (d *Directory) Has(key string) bool {
	_, err := d.Encoded(key)
	return err == nil
}

// Encoded returns the raw model bytes for key.
func (d *Directory) Encoded(key string) ([]byte, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, key)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if data, ok := d.cache[key]; ok {
		return data, nil
	}
	data, err := os.ReadFile(filepath.Join(d.root, key+Extension))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrModelNotFound, key)
		}
		return nil, fmt.Errorf("read model %q: %w", key, err)
	}
	d.cache[key] = data
	return data, nil
}

// Static is an in-memory source.
type Static map[string][]byte

// Keys lists the keys in lexical order.
func (s Static) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encoded returns the bytes stored under key.
func (s Static) Encoded(key string) ([]byte, error) {
	data, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, key)
	}
	return data, nil
}
