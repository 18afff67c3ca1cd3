package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/pkg/domain"
)

// Engine is the stateless transition core.
// It resolves an event against a snapshot and returns the successor snapshot without persisting it.
type Engine[C any] struct {
	def    *domain.Definition[C]
	logger *slog.Logger
	hooks  domain.Hooks
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption[C any] func(*Engine[C])

// WithLogger sets the structured logger.
func WithLogger[C any](logger *slog.Logger) EngineOption[C] {
	return func(e *Engine[C]) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability hooks for ignored events and entry failures.
func WithHooks[C any](hooks domain.Hooks) EngineOption[C] {
	return func(e *Engine[C]) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock[C any](now func() time.Time) EngineOption[C] {
	return func(e *Engine[C]) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine for the given definition.
func NewEngine[C any](def *domain.Definition[C], opts ...EngineOption[C]) *Engine[C] {
	e := &Engine[C]{
		def:    def,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the result of resolving one event.
type Outcome[C any] struct {
	// Handled is false when the current state has no handler for the event.
	// In that case Next is the unchanged input snapshot and nothing must be persisted.
	Handled bool

	// Target is the state named by the transition table.
	Target string

	// Next is the snapshot to persist.
	Next domain.Snapshot[C]

	// EntryErr holds an entry failure that was routed to OnError.
	EntryErr error

	// EntryDuration is how long the entry function ran (zero if none ran).
	EntryDuration time.Duration
}

// Resolve computes the effect of event on current.
// An entry failure without an OnError target is returned as a *domain.EntryError.
func (e *Engine[C]) Resolve(ctx context.Context, current domain.Snapshot[C], event string, payload any) (Outcome[C], error) {
	node, ok := e.def.Node(current.State)
	if !ok {
		return Outcome[C]{}, fmt.Errorf("actor %q is in state %q: %w", current.ID, current.State, domain.ErrUnknownState)
	}

	target, ok := node.On[event]
	if !ok {
		e.logger.Debug("event ignored", "actor_id", current.ID, "state", current.State, "event", event)
		if e.hooks.OnIgnored != nil {
			e.hooks.OnIgnored(ctx, &domain.IgnoredEvent{
				EventBase: e.base(domain.EventIgnored, current.ID, event),
				State:     current.State,
			})
		}
		return Outcome[C]{Next: current}, nil
	}

	targetNode, ok := e.def.Node(target)
	if !ok {
		return Outcome[C]{}, fmt.Errorf("transition %q from %q targets %q: %w", event, current.State, target, domain.ErrUnknownState)
	}

	if !targetNode.HasEntry() {
		return Outcome[C]{
			Handled: true,
			Target:  target,
			Next:    current.Next(target, current.Context, e.now()),
		}, nil
	}

	started := e.now()
	result, err := targetNode.Entry(ctx, domain.CloneContext(current.Context), payload)
	elapsed := e.now().Sub(started)

	if err == nil {
		return Outcome[C]{
			Handled:       true,
			Target:        target,
			Next:          current.Next(targetNode.OnSuccess, result, e.now()),
			EntryDuration: elapsed,
		}, nil
	}

	// A cancelled caller aborts the step instead of being routed to OnError.
	handled := targetNode.OnError != "" && ctx.Err() == nil
	e.emitEntryError(ctx, current.ID, event, target, err, handled, elapsed)

	if !handled {
		e.logger.Warn("entry failed", "actor_id", current.ID, "state", target, "event", event, "err", err)
		return Outcome[C]{}, &domain.EntryError{
			ActorID: current.ID,
			State:   target,
			Event:   event,
			Err:     err,
		}
	}

	e.logger.Debug("entry failed, routing to error state",
		"actor_id", current.ID,
		"state", target,
		"on_error", targetNode.OnError,
		"err", err,
	)

	return Outcome[C]{
		Handled:       true,
		Target:        target,
		Next:          current.Next(targetNode.OnError, current.Context, e.now()),
		EntryErr:      err,
		EntryDuration: elapsed,
	}, nil
}

func (e *Engine[C]) emitEntryError(ctx context.Context, actorID, event, state string, err error, handled bool, elapsed time.Duration) {
	if e.hooks.OnEntryError == nil {
		return
	}
	e.hooks.OnEntryError(ctx, &domain.EntryErrorEvent{
		EventBase: e.base(domain.EventEntryError, actorID, event),
		State:     state,
		Err:       err,
		Handled:   handled,
		Entry:     elapsed,
	})
}

func (e *Engine[C]) base(typ domain.EventType, actorID, event string) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      typ,
		Machine:   e.def.Name(),
		ActorID:   actorID,
		Event:     event,
	}
}
