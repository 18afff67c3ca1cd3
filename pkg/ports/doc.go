/*
Package ports defines the driven ports (interfaces) of durafsm.

These interfaces decouple the transition engine from storage backends and
coordination services.

# Key Interfaces

  - Adapter: loads, creates and saves actor snapshots (memory, file, Redis, SQL).
  - Lister / Deleter: optional adapter capabilities used by tooling.
  - DistributedLocker: serializes access to one actor across replicas.

RunAdapterContract is a reusable test suite every Adapter implementation should pass.
*/
package ports
