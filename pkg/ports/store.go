package ports

import (
	"context"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// SnapshotStore defines the interface for persisting machine runtime state.
// The in-memory registry itself defines no serialization contract; stores
// persist domain.Snapshot, which deliberately excludes transition tables
// and listeners (function values).
type SnapshotStore interface {
	// Save persists the snapshot for a given machine ID.
	Save(ctx context.Context, machineID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given machine ID.
	// Returns domain.ErrMachineNotFound if no snapshot exists.
	Load(ctx context.Context, machineID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given machine ID.
	Delete(ctx context.Context, machineID string) error

	// List returns the IDs of all persisted machines.
	List(ctx context.Context) ([]string, error)
}
