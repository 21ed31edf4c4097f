package domain

import "time"

// Record is an immutable history entry capturing one completed transition.
type Record struct {
	From      StateID   `json:"from"`
	To        StateID   `json:"to"`
	Event     EventID   `json:"event"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SendResult reports the outcome of delivering an event to a machine.
// Success is false when no transition matched (current state, event);
// that is a normal outcome, not an error, and the machine is unchanged.
type SendResult struct {
	Success bool           `json:"success"`
	From    StateID        `json:"from"`
	To      StateID        `json:"to"`
	Event   EventID        `json:"event"`
	Context map[string]any `json:"context,omitempty"`

	// Data carries extra freeform data produced by a handler transition.
	Data any `json:"data,omitempty"`
}
