package dsl

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/registry"
)

// Document is the YAML form of a machine definition.
// Entry functions are referenced by registry name.
type Document[C any] struct {
	Name    string                   `yaml:"name"`
	Initial string                   `yaml:"initial"`
	Context C                        `yaml:"context"`
	States  map[string]StateDocument `yaml:"states"`
}

// StateDocument is the YAML form of a single state.
type StateDocument struct {
	On        map[string]string `yaml:"on,omitempty"`
	Entry     string            `yaml:"entry,omitempty"`
	OnSuccess string            `yaml:"onSuccess,omitempty"`
	OnError   string            `yaml:"onError,omitempty"`
}

// FromYAML parses a YAML definition and resolves its entry names through reg.
// reg may be nil when no state declares an entry.
func FromYAML[C any](data []byte, reg *registry.Registry[C]) (*domain.Definition[C], error) {
	var doc Document[C]
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse machine yaml: %w", err)
	}
	cfg, err := doc.Config(reg)
	if err != nil {
		return nil, err
	}
	return domain.NewDefinition(cfg)
}

// LoadFile reads and parses a YAML definition from path.
func LoadFile[C any](path string, reg *registry.Registry[C]) (*domain.Definition[C], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine file: %w", err)
	}
	return FromYAML(data, reg)
}

// Config resolves entry names and returns the raw configuration.
func (d Document[C]) Config(reg *registry.Registry[C]) (domain.Config[C], error) {
	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	states := make(map[string]domain.StateNode[C], len(d.States))
	for _, name := range names {
		sd := d.States[name]
		node := domain.StateNode[C]{
			On:        sd.On,
			OnSuccess: sd.OnSuccess,
			OnError:   sd.OnError,
		}
		if sd.Entry != "" {
			if reg == nil {
				errs = append(errs, fmt.Errorf("state %q: entry %q needs a registry", name, sd.Entry))
			} else if fn, err := reg.Lookup(sd.Entry); err != nil {
				errs = append(errs, fmt.Errorf("state %q: %w", name, err))
			} else {
				node.Entry = fn
			}
		}
		states[name] = node
	}
	if len(errs) > 0 {
		return domain.Config[C]{}, errors.Join(errs...)
	}

	return domain.Config[C]{
		Name:    d.Name,
		Initial: d.Initial,
		States:  states,
		Context: d.Context,
	}, nil
}
