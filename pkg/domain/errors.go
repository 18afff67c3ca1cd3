package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrActorAlreadyExists is matched by *ActorAlreadyExistsError.
var ErrActorAlreadyExists = errors.New("actor already exists")

// ErrSnapshotExists is returned by adapters when Create finds an existing record for the id.
var ErrSnapshotExists = errors.New("snapshot already exists")

// ErrConflict is matched by *ConflictError.
var ErrConflict = errors.New("snapshot version conflict")

// ErrInvalidDefinition is matched by *ConfigError.
var ErrInvalidDefinition = errors.New("invalid machine definition")

// ErrUnknownState is returned when a snapshot names a state the definition does not know.
// With validated definitions this only happens when a store is shared by incompatible machines.
var ErrUnknownState = errors.New("unknown state")

// ActorAlreadyExistsError is returned by CreateActor when the id is taken.
type ActorAlreadyExistsError struct {
	ID string
}

func (e *ActorAlreadyExistsError) Error() string {
	return fmt.Sprintf("actor %q already exists", e.ID)
}

func (e *ActorAlreadyExistsError) Is(target error) bool {
	return target == ErrActorAlreadyExists
}

// ConflictError is returned by Save when the stored version is not the one the snapshot was derived from.
type ConflictError struct {
	ID       string
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("snapshot %q version conflict: expected stored version %d, found %d", e.ID, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// EntryError is returned by Send when an entry function fails and the state has no OnError target.
type EntryError struct {
	ActorID string
	State   string
	Event   string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry of state %q failed (actor %q, event %q): %v", e.State, e.ActorID, e.Event, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// ConfigError lists every problem found while validating a machine configuration.
type ConfigError struct {
	Machine string
	Issues  []string
}

func (e *ConfigError) Error() string {
	label := "machine"
	if e.Machine != "" {
		label = fmt.Sprintf("machine %q", e.Machine)
	}
	return fmt.Sprintf("invalid %s definition:\n- %s", label, strings.Join(e.Issues, "\n- "))
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// ErrActorNotFound is returned by operations that require an existing actor.
// GetActor never returns it: a missing actor is reported as a nil *Actor.
var ErrActorNotFound = errors.New("actor not found")

// ErrEmptyID is returned when an actor id is empty.
var ErrEmptyID = errors.New("actor id cannot be empty")

// ErrInvalidID is returned by adapters that cannot store an actor under the given id.
var ErrInvalidID = errors.New("actor id is not valid for this store")
