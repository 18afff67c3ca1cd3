package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventIgnored    EventType = "ignored"
	EventEntryError EventType = "entry_error"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Machine   string    `json:"machine,omitempty"`
	ActorID   string    `json:"actor_id"`
	Event     string    `json:"event"`
}

// TransitionEvent is emitted after a transition has been persisted.
type TransitionEvent struct {
	EventBase
	From string `json:"from"`
	// Target is the state named by the transition table; To is where the actor rests.
	// They differ when Target runs an entry function.
	Target  string        `json:"target"`
	To      string        `json:"to"`
	Version int64         `json:"version"`
	Entry   time.Duration `json:"entry,omitempty"`
}

// IgnoredEvent is emitted when an event has no handler in the current state.
type IgnoredEvent struct {
	EventBase
	State string `json:"state"`
}

// EntryErrorEvent is emitted whenever an entry function fails.
// Handled is true when the failure was routed to an OnError target.
type EntryErrorEvent struct {
	EventBase
	State   string        `json:"state"`
	Err     error         `json:"-"`
	Handled bool          `json:"handled"`
	Entry   time.Duration `json:"entry"`
}

// Hooks defines callbacks for machine observability.
// All fields are optional.
type Hooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnIgnored    func(context.Context, *IgnoredEvent)
	OnEntryError func(context.Context, *EntryErrorEvent)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnIgnored:    chain(h.OnIgnored, other.OnIgnored),
		OnEntryError: chain(h.OnEntryError, other.OnEntryError),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
