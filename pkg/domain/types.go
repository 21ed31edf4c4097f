package domain

// StateID is a unique label for a state within one machine.
type StateID string

// EventID is a unique identifier for an event type.
type EventID string

// DefaultInitialState is the state a machine starts in when its
// definition does not name one.
const DefaultInitialState StateID = "idle"
