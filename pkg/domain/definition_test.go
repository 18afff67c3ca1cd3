package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/durafsm/pkg/domain"
)

func noop(ctx context.Context, c int, payload any) (int, error) { return c, nil }

func TestNewDefinition_Valid(t *testing.T) {
	cfg := domain.Config[int]{
		Name:    "light",
		Initial: "red",
		Context: 7,
		States: map[string]domain.StateNode[int]{
			"red":    {On: map[string]string{"next": "green"}},
			"green":  {On: map[string]string{"next": "yellow", "reset": "red"}},
			"yellow": {On: map[string]string{"next": "red"}},
		},
	}
	def, err := domain.NewDefinition(cfg)
	require.NoError(t, err)

	assert.Equal(t, "light", def.Name())
	assert.Equal(t, "red", def.Initial())
	assert.Equal(t, 7, def.Seed())
	assert.Equal(t, []string{"green", "red", "yellow"}, def.States())
	assert.Equal(t, []string{"next", "reset"}, def.Events())

	target, ok := def.Transition("green", "reset")
	assert.True(t, ok)
	assert.Equal(t, "red", target)

	_, ok = def.Transition("red", "reset")
	assert.False(t, ok)
	_, ok = def.Transition("blue", "next")
	assert.False(t, ok)

	// Mutating the caller's config must not leak into the definition.
	cfg.States["red"].On["next"] = "yellow"
	target, _ = def.Transition("red", "next")
	assert.Equal(t, "green", target)
}

func TestValidate_ReportsEveryIssue(t *testing.T) {
	cfg := domain.Config[int]{
		Name:    "broken",
		Initial: "start",
		States: map[string]domain.StateNode[int]{
			"a": {On: map[string]string{"go": "ghost", "": "a"}},
			"b": {Entry: noop},
			"c": {Entry: noop, OnSuccess: "nope", OnError: "void"},
			"d": {OnSuccess: "a"},
		},
	}

	err := domain.Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDefinition))

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "broken", cfgErr.Machine)
	assert.Equal(t, []string{
		`initial state "start" not defined`,
		`state "a" has a transition with an empty event name`,
		`state "a": event "go" targets undefined state "ghost"`,
		`state "b" has an entry function but no onSuccess target`,
		`state "c": onSuccess targets undefined state "nope"`,
		`state "c": onError targets undefined state "void"`,
		`state "d" declares onSuccess/onError without an entry function`,
	}, cfgErr.Issues)
	assert.Contains(t, err.Error(), `invalid machine "broken" definition:`)
}

func TestValidate_NoInitial(t *testing.T) {
	err := domain.Validate(domain.Config[int]{States: map[string]domain.StateNode[int]{"a": {}}})
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"no initial state defined"}, cfgErr.Issues)
	assert.Contains(t, err.Error(), "invalid machine definition")
}

func TestValidate_EntryStateWithoutOnError(t *testing.T) {
	err := domain.Validate(domain.Config[int]{
		Initial: "idle",
		States: map[string]domain.StateNode[int]{
			"idle": {On: map[string]string{"run": "work"}},
			"work": {Entry: noop, OnSuccess: "idle"},
		},
	})
	assert.NoError(t, err, "onError is optional")
}
