package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileCache stores cached inputs in a YAML file.
type FileCache struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFileCache loads the cache at path. A missing file is an empty cache.
func NewFileCache(path string) (*FileCache, error) {
	c := &FileCache{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input cache: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.values); err != nil {
		return nil, fmt.Errorf("failed to parse input cache %s: %w", path, err)
	}
	if c.values == nil {
		c.values = make(map[string]string)
	}
	return c, nil
}

// Load implements Cache.
func (c *FileCache) Load(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[name]
	return v, ok
}

// Store implements Cache and rewrites the file.
func (c *FileCache) Store(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[name] = value
	data, err := yaml.Marshal(c.values)
	if err != nil {
		return fmt.Errorf("failed to encode input cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create input cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write input cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
