package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Registry maps names to entry functions so that definitions loaded from
// text (YAML) can reference Go behavior.
type Registry[C any] struct {
	mu      sync.RWMutex
	entries map[string]domain.EntryFunc[C]
}

// New creates a new empty registry.
func New[C any]() *Registry[C] {
	return &Registry[C]{
		entries: make(map[string]domain.EntryFunc[C]),
	}
}

// Register adds an entry function.
// If an entry with the same name exists, it is overwritten.
func (r *Registry[C]) Register(name string, fn domain.EntryFunc[C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = fn
}

// Lookup returns the entry function registered under name.
func (r *Registry[C]) Lookup(name string) (domain.EntryFunc[C], error) {
	r.mu.RLock()
	fn, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	return fn, nil
}

// Names lists the registered entries in lexical order.
func (r *Registry[C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewMap returns a registry for domain.Map contexts preloaded with the builtins:
//
//   - merge: copies the keys of a map payload into the context.
//   - fail: always fails, with the payload's "error" value as message.
func NewMap() *Registry[domain.Map] {
	r := New[domain.Map]()
	r.Register("merge", Merge)
	r.Register("fail", Fail)
	return r
}

// Merge copies the keys of a map payload into the context.
// A nil payload leaves the context unchanged.
func Merge(ctx context.Context, c domain.Map, payload any) (domain.Map, error) {
	if c == nil {
		c = domain.Map{}
	}
	switch p := payload.(type) {
	case nil:
		return c, nil
	case map[string]any:
		for k, v := range p {
			c[k] = v
		}
	case domain.Map:
		for k, v := range p {
			c[k] = v
		}
	default:
		return nil, fmt.Errorf("merge expects an object payload, got %T", payload)
	}
	return c, nil
}

// Fail always returns an error.
func Fail(ctx context.Context, c domain.Map, payload any) (domain.Map, error) {
	msg := "entry failed"
	if p, ok := payload.(map[string]any); ok {
		if s, ok := p["error"].(string); ok && s != "" {
			msg = s
		}
	}
	return nil, fmt.Errorf("%s", msg)
}
