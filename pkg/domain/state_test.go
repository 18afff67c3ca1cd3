package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/durafsm/pkg/domain"
)

func TestSnapshot_Next(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := domain.NewSnapshot("a1", "idle", 1, t0)

	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, t0, first.CreatedAt)
	assert.Equal(t, t0, first.UpdatedAt)

	second := first.Next("busy", 2, t0.Add(time.Minute))
	assert.Equal(t, "a1", second.ID)
	assert.Equal(t, "busy", second.State)
	assert.Equal(t, 2, second.Context)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, t0, second.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), second.UpdatedAt)

	assert.Equal(t, "idle", first.State, "Next must not modify the receiver")
}

func TestSnapshot_NextNeverGoesBackInTime(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := domain.NewSnapshot("a1", "idle", 0, t0)

	next := snap.Next("busy", 0, t0.Add(-time.Hour))
	assert.Equal(t, t0, next.UpdatedAt)
}

func TestMap_CloneIsDeep(t *testing.T) {
	original := domain.Map{
		"user":  map[string]any{"name": "ada"},
		"tags":  []any{"a", map[string]any{"k": "v"}},
		"count": 1,
	}
	clone := original.Clone()

	clone["user"].(map[string]any)["name"] = "bob"
	clone["tags"].([]any)[1].(map[string]any)["k"] = "changed"
	clone["count"] = 2

	assert.Equal(t, "ada", original["user"].(map[string]any)["name"])
	assert.Equal(t, "v", original["tags"].([]any)[1].(map[string]any)["k"])
	assert.Equal(t, 1, original["count"])

	var nilMap domain.Map
	assert.Nil(t, nilMap.Clone())
}

func TestSnapshot_CloneUsesCloner(t *testing.T) {
	snap := domain.NewSnapshot("a1", "idle", domain.Map{"k": "v"}, time.Now())
	clone := snap.Clone()
	clone.Context["k"] = "changed"
	assert.Equal(t, "v", snap.Context["k"])
}

func TestErrors_Matching(t *testing.T) {
	var err error = &domain.ActorAlreadyExistsError{ID: "a1"}
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), domain.ErrActorAlreadyExists)
	assert.EqualError(t, err, `actor "a1" already exists`)

	err = &domain.ConflictError{ID: "a1", Expected: 3, Actual: 4}
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "expected stored version 3, found 4")

	cause := errors.New("boom")
	err = &domain.EntryError{ActorID: "a1", State: "charging", Event: "pay", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `entry of state "charging" failed`)
}
