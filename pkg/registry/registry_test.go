package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/registry"
)

func TestRegistry_RegisterLookup(t *testing.T) {
	r := registry.New[int]()
	r.Register("inc", func(ctx context.Context, c int, payload any) (int, error) { return c + 1, nil })

	fn, err := r.Lookup("inc")
	require.NoError(t, err)
	got, err := fn(context.Background(), 41, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = r.Lookup("dec")
	assert.ErrorContains(t, err, "entry not found: dec")
}

func TestNewMap_Builtins(t *testing.T) {
	r := registry.NewMap()
	assert.Equal(t, []string{"fail", "merge"}, r.Names())
}

func TestMerge(t *testing.T) {
	ctx := context.Background()

	got, err := registry.Merge(ctx, domain.Map{"a": 1}, map[string]any{"b": 2})
	require.NoError(t, err)
	assert.Equal(t, domain.Map{"a": 1, "b": 2}, got)

	got, err = registry.Merge(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Map{}, got)

	_, err = registry.Merge(ctx, domain.Map{}, "scalar")
	assert.Error(t, err)
}

func TestFail(t *testing.T) {
	_, err := registry.Fail(context.Background(), domain.Map{}, map[string]any{"error": "card declined"})
	assert.EqualError(t, err, "card declined")

	_, err = registry.Fail(context.Background(), domain.Map{}, nil)
	assert.EqualError(t, err, "entry failed")
}
