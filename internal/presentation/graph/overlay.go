package graph

import (
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// OverlayFor builds an overlay from a machine's live history: every state
// it has passed through is marked visited and the current state is
// highlighted. Returns nil if the machine is not registered.
func OverlayFor(reg *registry.Registry, machineID string) *Overlay {
	m := reg.Machine(machineID)
	if m == nil {
		return nil
	}

	seen := make(map[domain.StateID]bool)
	var visited []domain.StateID
	note := func(s domain.StateID) {
		if s != "" && !seen[s] {
			seen[s] = true
			visited = append(visited, s)
		}
	}
	for _, rec := range m.History {
		note(rec.From)
		note(rec.To)
	}

	return &Overlay{
		VisitedStates: visited,
		CurrentState:  m.CurrentState,
	}
}
