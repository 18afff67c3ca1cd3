/*
Package locking serializes work on a single actor.

Bound machines use it so that concurrent CreateActor / Send calls for the same id
run one after another instead of racing into a version conflict. Locking is local
to the process unless a ports.DistributedLocker (e.g. the Redis locker) is configured.
*/
package locking
