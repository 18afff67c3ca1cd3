package domain

import "time"

// Snapshot is the durable record of one actor at a point in time.
// Every effective transition produces a new Snapshot; existing values are never mutated.
type Snapshot[C any] struct {
	ID      string `json:"id" yaml:"id"`
	State   string `json:"state" yaml:"state"`
	Context C      `json:"context" yaml:"context"`

	// Version is the optimistic concurrency token: 1 on creation, +1 per persisted transition.
	Version int64 `json:"version" yaml:"version"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewSnapshot creates the first snapshot of an actor. Both timestamps are set to now.
func NewSnapshot[C any](id, state string, c C, now time.Time) Snapshot[C] {
	return Snapshot[C]{
		ID:        id,
		State:     state,
		Context:   c,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Next derives the successor snapshot for a persisted transition.
// CreatedAt is carried over, UpdatedAt never goes backwards and Version is bumped.
func (s Snapshot[C]) Next(state string, c C, now time.Time) Snapshot[C] {
	if now.Before(s.UpdatedAt) {
		now = s.UpdatedAt
	}
	return Snapshot[C]{
		ID:        s.ID,
		State:     state,
		Context:   c,
		Version:   s.Version + 1,
		CreatedAt: s.CreatedAt,
		UpdatedAt: now,
	}
}

// Cloner is implemented by context types holding references (maps, slices, pointers)
// that must be copied before being handed to user code.
type Cloner[C any] interface {
	Clone() C
}

// CloneContext returns a copy of c if it implements Cloner, otherwise c itself.
func CloneContext[C any](c C) C {
	if cl, ok := any(c).(Cloner[C]); ok {
		return cl.Clone()
	}
	return c
}

// Clone returns a copy of the snapshot with a cloned context.
func (s Snapshot[C]) Clone() Snapshot[C] {
	s.Context = CloneContext(s.Context)
	return s
}
