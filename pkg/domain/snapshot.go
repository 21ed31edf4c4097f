package domain

import "time"

// Snapshot is the serializable slice of a machine's runtime state.
//
// Transition tables and listeners hold function values and cannot be
// serialized; restoring a snapshot therefore requires re-supplying the
// machine's Definition (from code or a definition file).
type Snapshot struct {
	ID           string         `json:"id"`
	CurrentState StateID        `json:"current_state"`
	Context      map[string]any `json:"context,omitempty"`
	History      []Record       `json:"history,omitempty"`
	Created      time.Time      `json:"created"`
}
