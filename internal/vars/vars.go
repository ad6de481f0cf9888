// Package vars holds the run-scoped context of a procedure: named values,
// some of them flagged secret.
//
// Secret values are substituted in cleartext into executed commands through
// [Set.Lookup] but only ever appear as [RedactedMarker] through
// [Set.Redacted] and [Set.Redact].
package vars

import (
	"sort"
	"strings"
	"sync"
)

// RedactedMarker replaces secret values in everything that is logged or persisted.
const RedactedMarker = "<redacted>"

// Value is a named binding in the run context.
type Value struct {
	Name   string
	Data   string
	Secret bool
}

// String returns the value as it may be displayed.
func (v Value) String() string {
	if v.Secret {
		return RedactedMarker
	}
	return v.Data
}

// Set is a concurrency-safe run context.
type Set struct {
	mu     sync.RWMutex
	values map[string]Value
	order  []string
}

// NewSet creates a Set holding values.
func NewSet(values ...Value) *Set {
	s := &Set{values: make(map[string]Value)}
	for _, v := range values {
		s.Bind(v)
	}
	return s
}

// Bind adds or replaces a value. A value once bound as secret stays secret.
func (s *Set) Bind(v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.values[v.Name]; ok {
		v.Secret = v.Secret || prev.Secret
	} else {
		s.order = append(s.order, v.Name)
	}
	s.values[v.Name] = v
}

// Get returns the value bound to name.
func (s *Set) Get(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Lookup returns the cleartext data bound to name.
func (s *Set) Lookup(name string) (string, bool) {
	v, ok := s.Get(name)
	return v.Data, ok
}

// Redacted returns a lookup view in which secret values read as RedactedMarker.
func (s *Set) Redacted() RedactedView {
	return RedactedView{set: s}
}

// Values returns a copy of all values in binding order.
func (s *Set) Values() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Value, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.values[name])
	}
	return out
}

// Redact replaces every occurrence of a secret value in text with RedactedMarker.
func (s *Set) Redact(text string) string {
	s.mu.RLock()
	secrets := make([]string, 0)
	for _, v := range s.values {
		if v.Secret && v.Data != "" {
			secrets = append(secrets, v.Data)
		}
	}
	s.mu.RUnlock()

	if len(secrets) == 0 {
		return text
	}

	// Longer secrets first so a secret containing another is fully masked.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, secret := range secrets {
		text = strings.ReplaceAll(text, secret, RedactedMarker)
	}
	return text
}

// RedactedView exposes a Set with secrets masked.
type RedactedView struct {
	set *Set
}

// Lookup returns RedactedMarker for secret values.
func (r RedactedView) Lookup(name string) (string, bool) {
	v, ok := r.set.Get(name)
	if !ok {
		return "", false
	}
	return v.String(), true
}
