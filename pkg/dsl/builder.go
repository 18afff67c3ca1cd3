package dsl

import (
	"github.com/aretw0/durafsm/pkg/domain"
)

// Builder manages the machine construction.
type Builder[C any] struct {
	name    string
	initial string
	context C
	states  map[string]*StateBuilder[C]
}

// New creates a new machine builder starting in initial.
func New[C any](name, initial string) *Builder[C] {
	return &Builder[C]{
		name:    name,
		initial: initial,
		states:  make(map[string]*StateBuilder[C]),
	}
}

// Context sets the seed context exposed through Definition.Seed.
func (b *Builder[C]) Context(c C) *Builder[C] {
	b.context = c
	return b
}

// State declares a state.
// If the state already exists, it returns the existing builder.
func (b *Builder[C]) State(name string) *StateBuilder[C] {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder[C]{
		node:    domain.StateNode[C]{On: make(map[string]string)},
		builder: b,
	}
	b.states[name] = sb
	return sb
}

// Config returns the raw configuration collected so far.
func (b *Builder[C]) Config() domain.Config[C] {
	states := make(map[string]domain.StateNode[C], len(b.states))
	for name, sb := range b.states {
		states[name] = sb.node
	}
	return domain.Config[C]{
		Name:    b.name,
		Initial: b.initial,
		States:  states,
		Context: b.context,
	}
}

// Build validates the machine and returns its definition.
func (b *Builder[C]) Build() (*domain.Definition[C], error) {
	return domain.NewDefinition(b.Config())
}

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder[C any] struct {
	node    domain.StateNode[C]
	builder *Builder[C]
}

// On adds an event handler moving to target.
func (s *StateBuilder[C]) On(event, target string) *StateBuilder[C] {
	s.node.On[event] = target
	return s
}

// Entry makes the state an entry state running fn.
func (s *StateBuilder[C]) Entry(fn domain.EntryFunc[C]) *StateBuilder[C] {
	s.node.Entry = fn
	return s
}

// OnSuccess sets where the actor rests after a successful entry.
func (s *StateBuilder[C]) OnSuccess(target string) *StateBuilder[C] {
	s.node.OnSuccess = target
	return s
}

// OnError sets where the actor rests after a failed entry.
func (s *StateBuilder[C]) OnError(target string) *StateBuilder[C] {
	s.node.OnError = target
	return s
}

// State switches to (or declares) another state.
func (s *StateBuilder[C]) State(name string) *StateBuilder[C] {
	return s.builder.State(name)
}

// Build is a shortcut for the parent builder's Build.
func (s *StateBuilder[C]) Build() (*domain.Definition[C], error) {
	return s.builder.Build()
}
