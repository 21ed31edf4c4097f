package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Store implements ports.SnapshotStore using the local filesystem.
// It stores machine snapshots as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new file store with the given base path.
// If basePath is empty, it defaults to ".switchyard/machines".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".switchyard", "machines")
	}
	return &Store{BasePath: basePath}
}

// Save persists the snapshot to a JSON file.
func (f *Store) Save(ctx context.Context, machineID string, snap *domain.Snapshot) error {
	if machineID == "" {
		return fmt.Errorf("machineID cannot be empty")
	}

	if err := os.MkdirAll(f.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(f.path(machineID), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// Load retrieves the snapshot from a JSON file.
func (f *Store) Load(ctx context.Context, machineID string) (*domain.Snapshot, error) {
	if machineID == "" {
		return nil, fmt.Errorf("machineID cannot be empty")
	}

	data, err := os.ReadFile(f.path(machineID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot file.
func (f *Store) Delete(ctx context.Context, machineID string) error {
	if machineID == "" {
		return fmt.Errorf("machineID cannot be empty")
	}

	err := os.Remove(f.path(machineID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns all persisted machine IDs.
func (f *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *Store) path(machineID string) string {
	return filepath.Join(f.BasePath, machineID+".json")
}
