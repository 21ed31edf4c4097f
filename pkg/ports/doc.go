/*
Package ports defines the driven ports (interfaces) for the Switchyard registry.

These interfaces decouple the core logic from external implementations, allowing
machine snapshots to be persisted to various storage backends and registry
access to be coordinated across replicas.

# Key Interfaces

  - SnapshotStore: Responsible for persisting and loading machine Snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent machine access.
*/
package ports
