package domain

import "time"

// Definition configures a machine at registration time.
type Definition struct {
	// Initial is the starting state. Defaults to DefaultInitialState.
	Initial StateID

	// States maps state labels to descriptive metadata. The metadata is
	// informational only; the transition logic never consults it.
	States map[StateID]map[string]any

	// Context seeds the machine context.
	Context map[string]any

	// Transitions is the nested transition configuration. It is
	// flattened into (from, event) entries on registration.
	Transitions map[StateID]map[EventID]Transition
}

// Machine is a point-in-time snapshot of one registered machine. The
// registry hands out copies; mutating a Machine does not affect the
// registry.
type Machine struct {
	ID           string
	CurrentState StateID
	Context      map[string]any
	StateMeta    map[StateID]map[string]any
	History      []Record
	Created      time.Time
}
