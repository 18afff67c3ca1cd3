package dsl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/dsl"
	"github.com/aretw0/durafsm/pkg/registry"
)

type order struct {
	Paid bool `json:"paid" yaml:"paid"`
}

func charge(ctx context.Context, o order, payload any) (order, error) {
	o.Paid = true
	return o, nil
}

func TestBuilder_Checkout(t *testing.T) {
	def, err := dsl.New[order]("checkout", "cart").
		State("cart").On("pay", "charging").
		State("charging").Entry(charge).OnSuccess("paid").OnError("cart").
		State("paid").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "checkout", def.Name())
	assert.Equal(t, "cart", def.Initial())
	assert.Equal(t, []string{"cart", "charging", "paid"}, def.States())
	assert.Equal(t, []string{"pay"}, def.Events())

	node, ok := def.Node("charging")
	require.True(t, ok)
	assert.True(t, node.HasEntry())
	assert.Equal(t, "paid", node.OnSuccess)
	assert.Equal(t, "cart", node.OnError)
}

func TestBuilder_ReusesStates(t *testing.T) {
	b := dsl.New[order]("", "a")
	b.State("a").On("x", "b")
	b.State("b")
	b.State("a").On("y", "b")

	def, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, def.Events())
}

func TestBuilder_InvalidTarget(t *testing.T) {
	_, err := dsl.New[order]("broken", "a").
		State("a").On("go", "nowhere").
		Build()
	require.ErrorIs(t, err, domain.ErrInvalidDefinition)
	assert.ErrorContains(t, err, `targets undefined state "nowhere"`)
}

const checkoutYAML = `
name: checkout
initial: cart
context:
  items: 0
states:
  cart:
    on:
      add: adding
      pay: charging
  adding:
    entry: merge
    onSuccess: cart
  charging:
    entry: fail
    onSuccess: paid
    onError: cart
  paid: {}
`

func TestFromYAML(t *testing.T) {
	def, err := dsl.FromYAML([]byte(checkoutYAML), registry.NewMap())
	require.NoError(t, err)

	assert.Equal(t, "checkout", def.Name())
	assert.Equal(t, domain.Map{"items": 0}, def.Seed())
	assert.Equal(t, []string{"add", "pay"}, def.Events())

	node, _ := def.Node("adding")
	require.True(t, node.HasEntry())
	got, err := node.Entry(context.Background(), domain.Map{}, map[string]any{"sku": "x1"})
	require.NoError(t, err)
	assert.Equal(t, "x1", got["sku"])
}

func TestFromYAML_UnknownEntries(t *testing.T) {
	_, err := dsl.FromYAML([]byte(checkoutYAML), registry.New[domain.Map]())
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry not found: merge")
	assert.ErrorContains(t, err, "entry not found: fail")

	_, err = dsl.FromYAML[domain.Map]([]byte(checkoutYAML), nil)
	assert.ErrorContains(t, err, "needs a registry")
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := dsl.FromYAML[domain.Map]([]byte("initial: [unclosed"), nil)
	assert.ErrorContains(t, err, "failed to parse machine yaml")

	_, err = dsl.FromYAML[domain.Map]([]byte("initial: missing\nstates:\n  a: {}\n"), nil)
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Issues, `initial state "missing" not defined`)
}
