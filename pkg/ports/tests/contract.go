package tests

import (
	"context"
	"testing"
	"time"

	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/ports"
)

// RunSnapshotStoreContract is a reusable test suite that verifies if an
// adapter complies with ports.SnapshotStore.
func RunSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	snap := &domain.Snapshot{
		ID:           "contract-machine",
		CurrentState: "unlocked",
		Context:      map[string]any{"coins": float64(3)},
		History: []domain.Record{
			{From: "locked", To: "unlocked", Event: "COIN", Timestamp: time.Now().UTC().Truncate(time.Second)},
		},
		Created: time.Now().UTC().Truncate(time.Second),
	}

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-machine")
		if err != domain.ErrMachineNotFound {
			t.Errorf("expected ErrMachineNotFound, got %v", err)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save(ctx, snap.ID, snap); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		loaded, err := store.Load(ctx, snap.ID)
		if err != nil {
			t.Fatalf("failed to load snapshot: %v", err)
		}
		if loaded.CurrentState != snap.CurrentState {
			t.Errorf("expected state %q, got %q", snap.CurrentState, loaded.CurrentState)
		}
		if loaded.Context["coins"] != snap.Context["coins"] {
			t.Errorf("expected context coins=%v, got %v", snap.Context["coins"], loaded.Context["coins"])
		}
		if len(loaded.History) != 1 {
			t.Errorf("expected 1 history record, got %d", len(loaded.History))
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("failed to list machines: %v", err)
		}
		found := false
		for _, id := range ids {
			if id == snap.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("machine %s missing from list %v", snap.ID, ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, snap.ID); err != nil {
			t.Fatalf("failed to delete snapshot: %v", err)
		}
		if _, err := store.Load(ctx, snap.ID); err != domain.ErrMachineNotFound {
			t.Errorf("expected ErrMachineNotFound after delete, got %v", err)
		}
	})
}
