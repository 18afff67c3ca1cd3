package domain

import (
	"context"
	"fmt"
	"sort"
)

// EntryFunc is the side effect run when a state with entry behavior is entered.
// It receives the actor context and the event payload and returns the next context.
// Returning an error routes the actor to the node's OnError target (if any).
//
// On failure the actor keeps the context it had before entry. The entry receives a copy
// only when C implements Cloner; otherwise it shares any maps, slices or pointers with the
// stored actor and must not mutate them in place. Build and return a new value instead.
type EntryFunc[C any] func(ctx context.Context, c C, payload any) (C, error)

// StateNode describes a single state.
// A node with a non-nil Entry is a transient "entry" state: the actor never rests in it,
// it always ends up in OnSuccess or OnError.
type StateNode[C any] struct {
	// On maps event names to target state names.
	On map[string]string

	Entry     EntryFunc[C]
	OnSuccess string
	OnError   string
}

// HasEntry reports whether the node runs an entry function.
func (n StateNode[C]) HasEntry() bool {
	return n.Entry != nil
}

// Config is the raw machine description handed to the definition builder.
type Config[C any] struct {
	// Name labels the machine in logs and metrics. Optional.
	Name string

	Initial string
	States  map[string]StateNode[C]

	// Context is an optional seed context, exposed through Definition.Seed.
	Context C
}

// Definition is an immutable, validated machine description.
// It is safe to share across goroutines and actors.
type Definition[C any] struct {
	name    string
	initial string
	states  map[string]StateNode[C]
	seed    C
}

// NewDefinition validates cfg and freezes it into a Definition.
// The caller's maps are copied, so later mutations of cfg have no effect.
func NewDefinition[C any](cfg Config[C]) (*Definition[C], error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	states := make(map[string]StateNode[C], len(cfg.States))
	for name, node := range cfg.States {
		on := make(map[string]string, len(node.On))
		for event, target := range node.On {
			on[event] = target
		}
		node.On = on
		states[name] = node
	}

	return &Definition[C]{
		name:    cfg.Name,
		initial: cfg.Initial,
		states:  states,
		seed:    cfg.Context,
	}, nil
}

// Validate checks that the configuration is internally consistent.
// All problems are reported at once through a *ConfigError.
func Validate[C any](cfg Config[C]) error {
	var issues []string

	if cfg.Initial == "" {
		issues = append(issues, "no initial state defined")
	} else if _, ok := cfg.States[cfg.Initial]; !ok {
		issues = append(issues, fmt.Sprintf("initial state %q not defined", cfg.Initial))
	}

	names := make([]string, 0, len(cfg.States))
	for name := range cfg.States {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := cfg.States[name]
		if name == "" {
			issues = append(issues, "state with empty name")
		}

		events := make([]string, 0, len(node.On))
		for event := range node.On {
			events = append(events, event)
		}
		sort.Strings(events)

		for _, event := range events {
			target := node.On[event]
			if event == "" {
				issues = append(issues, fmt.Sprintf("state %q has a transition with an empty event name", name))
			}
			if _, ok := cfg.States[target]; !ok {
				issues = append(issues, fmt.Sprintf("state %q: event %q targets undefined state %q", name, event, target))
			}
		}

		if node.Entry == nil {
			if node.OnSuccess != "" || node.OnError != "" {
				issues = append(issues, fmt.Sprintf("state %q declares onSuccess/onError without an entry function", name))
			}
			continue
		}

		if node.OnSuccess == "" {
			issues = append(issues, fmt.Sprintf("state %q has an entry function but no onSuccess target", name))
		} else if _, ok := cfg.States[node.OnSuccess]; !ok {
			issues = append(issues, fmt.Sprintf("state %q: onSuccess targets undefined state %q", name, node.OnSuccess))
		}

		if node.OnError != "" {
			if _, ok := cfg.States[node.OnError]; !ok {
				issues = append(issues, fmt.Sprintf("state %q: onError targets undefined state %q", name, node.OnError))
			}
		}
	}

	if len(issues) > 0 {
		return &ConfigError{Machine: cfg.Name, Issues: issues}
	}
	return nil
}

// Name returns the machine label (may be empty).
func (d *Definition[C]) Name() string { return d.name }

// Initial returns the starting state name.
func (d *Definition[C]) Initial() string { return d.initial }

// Seed returns the seed context declared in the configuration.
func (d *Definition[C]) Seed() C { return d.seed }

// Node returns the node for the given state name.
func (d *Definition[C]) Node(state string) (StateNode[C], bool) {
	node, ok := d.states[state]
	return node, ok
}

// States returns the sorted list of state names.
func (d *Definition[C]) States() []string {
	out := make([]string, 0, len(d.states))
	for name := range d.states {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Events returns the sorted, de-duplicated list of event names used by any state.
func (d *Definition[C]) Events() []string {
	seen := make(map[string]struct{})
	for _, node := range d.states {
		for event := range node.On {
			seen[event] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for event := range seen {
		out = append(out, event)
	}
	sort.Strings(out)
	return out
}

// Transition resolves event against state's transition table.
func (d *Definition[C]) Transition(state, event string) (string, bool) {
	node, ok := d.states[state]
	if !ok {
		return "", false
	}
	target, ok := node.On[event]
	return target, ok
}
