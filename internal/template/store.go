package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a named template does not exist.
var ErrNotFound = errors.New("template not found")

// Store looks up named templates.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
}

// MapStore is an in-memory Store. It is safe for concurrent use.
type MapStore struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewMapStore creates a MapStore seeded with templates.
func NewMapStore(templates map[string]string) *MapStore {
	s := &MapStore{templates: make(map[string]string, len(templates))}
	for k, v := range templates {
		s.templates[k] = v
	}
	return s
}

// Get implements Store.
func (s *MapStore) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Put adds or replaces a template.
func (s *MapStore) Put(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = text
}

// Names returns the sorted template names.
func (s *MapStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for k := range s.templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DirStore reads templates from a file system. A template named "node/setup"
// resolves to "node/setup", then to "node/setup" plus each of Extensions.
type DirStore struct {
	FS         fs.FS
	Extensions []string
}

// NewDirStore creates a DirStore rooted at dir that also tries the .sh and
// .tmpl extensions.
func NewDirStore(dir string) *DirStore {
	return &DirStore{
		FS:         os.DirFS(dir),
		Extensions: []string{".sh", ".tmpl"},
	}
}

// Get implements Store.
func (s *DirStore) Get(_ context.Context, name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid template name %q", name)
	}

	candidates := append([]string{clean}, suffixed(clean, s.Extensions)...)
	for _, c := range candidates {
		data, err := fs.ReadFile(s.FS, c)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read template %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func suffixed(name string, exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, name+ext)
	}
	return out
}

// Chain tries each Store in order and returns the first hit.
type Chain []Store

// Get implements Store.
func (c Chain) Get(ctx context.Context, name string) (string, error) {
	for _, s := range c {
		t, err := s.Get(ctx, name)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
