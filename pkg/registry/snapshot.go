package registry

import (
	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Snapshot returns the serializable runtime state of the named machine,
// or nil if id is unknown. Transition tables and listeners hold function
// values and are deliberately excluded; see domain.Snapshot.
func (r *Registry) Snapshot(id string) *domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	if !ok {
		return nil
	}
	return &domain.Snapshot{
		ID:           m.id,
		CurrentState: m.current,
		Context:      copyContext(m.context),
		History:      append([]domain.Record(nil), m.history...),
		Created:      m.created,
	}
}

// Restore registers a machine from def and overlays the runtime state
// captured in snap (current state, context, history, creation time).
// Like Register, restoring over an existing machine replaces it
// wholesale. Returns nil if the snapshot is nil or carries an empty id.
func (r *Registry) Restore(snap *domain.Snapshot, def domain.Definition) *domain.Machine {
	if snap == nil || snap.ID == "" {
		return nil
	}
	if r.Register(snap.ID, def) == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.machines[snap.ID]
	if snap.CurrentState != "" {
		m.current = snap.CurrentState
	}
	m.context = copyContext(snap.Context)
	m.history = append([]domain.Record(nil), snap.History...)
	if n := len(m.history); n > MaxHistory {
		m.history = append(m.history[:0:0], m.history[n-MaxHistory:]...)
	}
	if !snap.Created.IsZero() {
		m.created = snap.Created
	}
	return m.snapshot(len(m.history))
}
