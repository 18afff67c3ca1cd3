package ports

import (
	"context"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Adapter defines the persistence boundary of a bound machine.
// Implementations must be safe for concurrent use.
type Adapter[C any] interface {
	// Load retrieves the snapshot for id.
	// A missing id is reported as found == false with a nil error.
	Load(ctx context.Context, id string) (snap domain.Snapshot[C], found bool, err error)

	// Create atomically stores the first snapshot of an actor (Version 1, both timestamps = now).
	// Returns domain.ErrSnapshotExists if a record for id is already present.
	Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error)

	// Save overwrites the record for snap.ID only if the stored version is snap.Version-1.
	// Otherwise it returns a *domain.ConflictError.
	Save(ctx context.Context, snap domain.Snapshot[C]) error
}

// Lister is implemented by adapters that can enumerate stored actor ids.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Deleter is implemented by adapters that can remove a stored actor.
// Deleting a missing id is not an error.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}
