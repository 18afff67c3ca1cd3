package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Store implements ports.Adapter in memory.
// Safe for concurrent use. Contexts implementing domain.Cloner are copied on the way in and out.
type Store[C any] struct {
	data map[string]domain.Snapshot[C]
	mu   sync.RWMutex
	now  func() time.Time
}

// Option configures the Store.
type Option[C any] func(*Store[C])

// WithClock overrides the time source used by Create.
func WithClock[C any](now func() time.Time) Option[C] {
	return func(s *Store[C]) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore[C any](opts ...Option[C]) *Store[C] {
	s := &Store[C]{
		data: make(map[string]domain.Snapshot[C]),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load retrieves a copy of the snapshot.
func (s *Store[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return domain.Snapshot[C]{}, false, nil
	}
	return snap.Clone(), true, nil
}

// Create stores the first snapshot for id if none exists.
func (s *Store[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	snap := domain.NewSnapshot(id, state, c, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return domain.Snapshot[C]{}, domain.ErrSnapshotExists
	}
	s.data[id] = snap.Clone()
	return snap, nil
}

// Save replaces the snapshot if the stored version is the predecessor of snap.
func (s *Store[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[snap.ID]
	if !ok || current.Version != snap.Version-1 {
		return &domain.ConflictError{ID: snap.ID, Expected: snap.Version - 1, Actual: current.Version}
	}
	s.data[snap.ID] = snap.Clone()
	return nil
}

// Delete removes the snapshot.
func (s *Store[C]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored actor ids in lexical order.
func (s *Store[C]) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
