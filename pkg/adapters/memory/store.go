package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, machineID string, snap *domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := copySnapshot(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[machineID] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, machineID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[machineID]
	if !ok {
		return nil, domain.ErrMachineNotFound
	}

	// Copy on read so the caller can't mutate store state through the pointer
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, machineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, machineID)
	return nil
}

// List returns all persisted machine IDs in deterministic order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	copied := *snap
	copied.Context = make(map[string]any, len(snap.Context))
	for k, v := range snap.Context {
		copied.Context[k] = v
	}
	copied.History = append([]domain.Record(nil), snap.History...)
	return &copied
}
