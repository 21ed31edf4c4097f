package checkpoint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/switchyard-io/switchyard/internal/logging"
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/ports"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager moves machine snapshots between a Registry and a SnapshotStore,
// ensuring safe concurrent operations per machine ID. It uses reference
// counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new checkpoint Manager with the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(machineID) after unlocking.
func (m *Manager) acquire(machineID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[machineID]
	if !exists {
		entry = &lockEntry{}
		m.locks[machineID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(machineID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[machineID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, machineID)
	}
}

// Checkpoint captures the machine's current snapshot from the registry
// and persists it. Returns domain.ErrNotRegistered if the machine is not
// in the registry.
func (m *Manager) Checkpoint(ctx context.Context, reg *registry.Registry, machineID string) error {
	return m.WithLock(ctx, machineID, func(ctx context.Context) error {
		snap := reg.Snapshot(machineID)
		if snap == nil {
			return domain.ErrNotRegistered
		}
		if err := m.store.Save(ctx, machineID, snap); err != nil {
			return fmt.Errorf("failed to persist snapshot: %w", err)
		}
		return nil
	})
}

// CheckpointAll persists snapshots for every machine currently registered.
// It stops at the first failure.
func (m *Manager) CheckpointAll(ctx context.Context, reg *registry.Registry) error {
	for _, id := range reg.List() {
		if err := m.Checkpoint(ctx, reg, id); err != nil {
			return fmt.Errorf("checkpoint %s: %w", id, err)
		}
	}
	return nil
}

// Restore loads the machine's snapshot from the store and registers it in
// the registry under the supplied definition (snapshots cannot carry
// transition tables). Returns the restored machine snapshot.
func (m *Manager) Restore(ctx context.Context, reg *registry.Registry, machineID string, def domain.Definition) (*domain.Machine, error) {
	var restored *domain.Machine
	err := m.WithLock(ctx, machineID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, machineID)
		if err != nil {
			return err
		}
		restored = reg.Restore(snap, def)
		if restored == nil {
			return fmt.Errorf("snapshot for %s could not be restored", machineID)
		}
		return nil
	})
	return restored, err
}

// Delete removes the machine's snapshot from the store.
func (m *Manager) Delete(ctx context.Context, machineID string) error {
	return m.WithLock(ctx, machineID, func(ctx context.Context) error {
		return m.store.Delete(ctx, machineID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the machine.
func (m *Manager) WithLock(ctx context.Context, machineID string, fn func(context.Context) error) error {
	entry := m.acquire(machineID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(machineID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, machineID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"machine_id", machineID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
