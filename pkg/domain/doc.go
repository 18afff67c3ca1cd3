/*
Package domain contains the core domain models of the durafsm library.

It defines the machine definition, the persisted snapshot and the error taxonomy.
This package is kept pure and free of I/O or persistence concerns, following
Hexagonal Architecture principles.

# Key Entities

  - Definition: immutable, validated set of states and their transition tables.
  - StateNode: one state's transition table plus optional entry/onSuccess/onError routing.
  - Snapshot: durable record of an actor (id, state, context, version, timestamps).
  - Hooks: lifecycle callbacks used for logging and metrics.
*/
package domain
