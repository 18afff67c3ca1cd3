package durafsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/internal/runtime"
	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/locking"
	"github.com/aretw0/durafsm/pkg/ports"
)

// Define validates cfg and returns an immutable machine definition.
// Every transition, onSuccess and onError target must name a declared state;
// problems are reported together as a *domain.ConfigError.
func Define[C any](cfg domain.Config[C]) (*domain.Definition[C], error) {
	return domain.NewDefinition(cfg)
}

// MustDefine is like Define but panics on an invalid configuration.
// It is meant for package-level machine variables.
func MustDefine[C any](cfg domain.Config[C]) *domain.Definition[C] {
	def, err := Define(cfg)
	if err != nil {
		panic(err)
	}
	return def
}

// Machine is a definition bound to a storage adapter.
// It creates and loads actors; it is safe for concurrent use.
type Machine[C any] struct {
	def     *domain.Definition[C]
	adapter ports.Adapter[C]
	engine  *runtime.Engine[C]
	logger  *slog.Logger
	hooks   domain.Hooks
	now     func() time.Time
	locks   *locking.Manager
	retries int
}

// Bind pairs a definition with an adapter.
func Bind[C any](def *domain.Definition[C], adapter ports.Adapter[C], opts ...Option) *Machine[C] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if def.Name() != "" {
		o.logger = o.logger.With("machine", def.Name())
	}
	if o.now == nil {
		o.now = time.Now
	}

	m := &Machine[C]{
		def:     def,
		adapter: adapter,
		logger:  o.logger,
		hooks:   o.hooks,
		now:     o.now,
		retries: o.retries,
		engine: runtime.NewEngine(def,
			runtime.WithLogger[C](o.logger),
			runtime.WithHooks[C](o.hooks),
			runtime.WithClock[C](o.now),
		),
	}

	if o.localLocking {
		lockOpts := []locking.Option{locking.WithLogger(o.logger), locking.WithTTL(o.lockTTL)}
		if o.locker != nil {
			lockOpts = append(lockOpts, locking.WithLocker(o.locker))
		}
		m.locks = locking.NewManager(lockOpts...)
	}

	return m
}

// Definition returns the bound definition.
func (m *Machine[C]) Definition() *domain.Definition[C] {
	return m.def
}

// Adapter returns the bound storage adapter.
func (m *Machine[C]) Adapter() ports.Adapter[C] {
	return m.adapter
}

// CreateActor stores the first snapshot of a new actor at the initial state.
// It fails with *domain.ActorAlreadyExistsError if a snapshot for id already exists.
func (m *Machine[C]) CreateActor(ctx context.Context, id string, c C) (*Actor[C], error) {
	if id == "" {
		return nil, domain.ErrEmptyID
	}

	var actor *Actor[C]
	err := m.withLock(ctx, id, func(ctx context.Context) error {
		_, found, err := m.adapter.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check actor existence: %w", err)
		}
		if found {
			return &domain.ActorAlreadyExistsError{ID: id}
		}

		snap, err := m.adapter.Create(ctx, id, m.def.Initial(), c)
		if err != nil {
			// Lost the race between Load and Create.
			if errors.Is(err, domain.ErrSnapshotExists) {
				return &domain.ActorAlreadyExistsError{ID: id}
			}
			return fmt.Errorf("failed to create actor: %w", err)
		}

		m.logger.Debug("actor created", "actor_id", id, "state", snap.State)
		actor = m.wrap(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actor, nil
}

// GetActor loads an existing actor. It returns (nil, nil) when no snapshot exists for id.
func (m *Machine[C]) GetActor(ctx context.Context, id string) (*Actor[C], error) {
	if id == "" {
		return nil, domain.ErrEmptyID
	}
	return m.load(ctx, id)
}

// Send loads the latest snapshot of id and sends event to it.
// With WithConflictRetries(n), a version conflict triggers up to n reload-and-retry rounds.
func (m *Machine[C]) Send(ctx context.Context, id, event string, payload any) (*Actor[C], error) {
	if id == "" {
		return nil, domain.ErrEmptyID
	}

	for attempt := 0; ; attempt++ {
		var next *Actor[C]
		err := m.withLock(ctx, id, func(ctx context.Context) error {
			actor, err := m.load(ctx, id)
			if err != nil {
				return err
			}
			if actor == nil {
				return fmt.Errorf("actor %q: %w", id, domain.ErrActorNotFound)
			}
			next, err = actor.send(ctx, event, payload)
			return err
		})

		if err != nil && errors.Is(err, domain.ErrConflict) && attempt < m.retries {
			m.logger.Debug("version conflict, retrying", "actor_id", id, "event", event, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
}

func (m *Machine[C]) load(ctx context.Context, id string) (*Actor[C], error) {
	snap, found, err := m.adapter.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if !found {
		return nil, nil
	}
	if _, ok := m.def.Node(snap.State); !ok {
		return nil, fmt.Errorf("actor %q is in state %q: %w", id, snap.State, domain.ErrUnknownState)
	}
	return m.wrap(snap), nil
}

func (m *Machine[C]) wrap(snap domain.Snapshot[C]) *Actor[C] {
	return &Actor[C]{snap: snap, machine: m}
}

func (m *Machine[C]) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if m.locks == nil {
		return fn(ctx)
	}
	return m.locks.WithLock(ctx, id, fn)
}
