package durafsm

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Actor is an immutable handle on one persisted snapshot.
// Send never modifies the receiver: an effective transition returns a new Actor.
type Actor[C any] struct {
	snap    domain.Snapshot[C]
	machine *Machine[C]
}

// ID returns the actor id.
func (a *Actor[C]) ID() string { return a.snap.ID }

// State returns the current state name.
func (a *Actor[C]) State() string { return a.snap.State }

// Context returns the current context. Contexts implementing domain.Cloner are copied.
func (a *Actor[C]) Context() C { return domain.CloneContext(a.snap.Context) }

// Version returns the snapshot version.
func (a *Actor[C]) Version() int64 { return a.snap.Version }

// CreatedAt returns the creation time of the actor lineage.
func (a *Actor[C]) CreatedAt() time.Time { return a.snap.CreatedAt }

// UpdatedAt returns the time of the last persisted transition.
func (a *Actor[C]) UpdatedAt() time.Time { return a.snap.UpdatedAt }

// Snapshot returns a copy of the underlying snapshot.
func (a *Actor[C]) Snapshot() domain.Snapshot[C] { return a.snap.Clone() }

// Send delivers event to the actor.
//
// If the current state has no handler for event, Send returns the receiver itself
// and persists nothing. Otherwise it runs the target's entry function (if any),
// persists the resolved snapshot and returns a new Actor.
// An entry failure without an onError target is returned as *domain.EntryError;
// a stale receiver yields *domain.ConflictError.
func (a *Actor[C]) Send(ctx context.Context, event string, payload any) (*Actor[C], error) {
	var next *Actor[C]
	err := a.machine.withLock(ctx, a.snap.ID, func(ctx context.Context) error {
		var err error
		next, err = a.send(ctx, event, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (a *Actor[C]) send(ctx context.Context, event string, payload any) (*Actor[C], error) {
	m := a.machine

	out, err := m.engine.Resolve(ctx, a.snap, event, payload)
	if err != nil {
		return nil, err
	}
	if !out.Handled {
		return a, nil
	}

	if err := m.adapter.Save(ctx, out.Next); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	m.logger.Debug("transition",
		"actor_id", a.snap.ID,
		"event", event,
		"from", a.snap.State,
		"to", out.Next.State,
		"version", out.Next.Version,
	)

	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{
				Timestamp: out.Next.UpdatedAt,
				Type:      domain.EventTransition,
				Machine:   m.def.Name(),
				ActorID:   a.snap.ID,
				Event:     event,
			},
			From:    a.snap.State,
			Target:  out.Target,
			To:      out.Next.State,
			Version: out.Next.Version,
			Entry:   out.EntryDuration,
		})
	}

	return m.wrap(out.Next), nil
}
