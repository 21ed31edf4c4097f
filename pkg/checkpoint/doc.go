/*
Package checkpoint orchestrates persistence for registry machines.

It moves machine snapshots between a live Registry and a SnapshotStore
while serializing access per machine ID, integrating local ref-counted
locks with optional distributed locking for multi-replica deployments.
*/
package checkpoint
