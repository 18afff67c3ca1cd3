/*
Package durafsm is a persistent finite state machine library.

A machine definition is a set of named states. A state either reacts to events
(its On map sends an event to a target state) or is an entry state: entering it
runs a side-effecting EntryFunc that moves the actor on to OnSuccess, or to
OnError when the function fails. Actors are individual instances of a machine;
each actor is a snapshot (state, context, version, timestamps) kept by a storage
Adapter, so an actor survives process restarts and can be driven from any process
sharing the store.

# Usage

	def := durafsm.MustDefine(domain.Config[Light]{
		Initial: "green",
		States: map[string]domain.StateNode[Light]{
			"green":  {On: map[string]string{"TIMER": "yellow"}},
			"yellow": {On: map[string]string{"TIMER": "red"}},
			"red":    {On: map[string]string{"TIMER": "green"}},
		},
	})

	machine := durafsm.Bind(def, memory.NewStore[Light]())

	actor, err := machine.CreateActor(ctx, "crossing-1", Light{})
	if err != nil {
		return err
	}
	actor, err = actor.Send(ctx, "TIMER", nil)

# Guarantees

  - Definitions are validated eagerly: every target must name a declared state.
  - CreateActor never overwrites: a second create for the same id fails with
    *domain.ActorAlreadyExistsError.
  - Save is optimistic: a snapshot written from a stale actor fails with
    *domain.ConflictError instead of losing the other writer's update.
  - An event the current state does not handle is a no-op: nothing is persisted
    and Send returns the same actor.
  - Actors are immutable values. Send returns a new Actor for every persisted step.

# Adapters

Storage lives behind ports.Adapter. The module ships memory, file, Redis and SQL
(PostgreSQL or SQLite) adapters under pkg/adapters, persistence middleware
(logging, tracing, encryption codecs) under pkg/persistence, and a YAML loader in pkg/dsl.
*/
package durafsm
