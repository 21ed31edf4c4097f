package domain

import "time"

// TransitionEvent describes one delivery of an event to a machine, whether
// or not a transition matched.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	MachineID string    `json:"machine_id"`
	From      StateID   `json:"from"`
	To        StateID   `json:"to"`
	Event     EventID   `json:"event"`
	Matched   bool      `json:"matched"`
}

// ListenerPanicEvent describes a listener that panicked during
// notification. The panic is contained; remaining listeners still run.
type ListenerPanicEvent struct {
	Timestamp time.Time `json:"timestamp"`
	MachineID string    `json:"machine_id"`
	Token     string    `json:"token"`
	Value     any       `json:"value"`
}

// LifecycleHooks defines callbacks for registry observability. All hooks
// are optional and are invoked synchronously; keep them fast.
type LifecycleHooks struct {
	OnTransition    func(*TransitionEvent)
	OnNoMatch       func(*TransitionEvent)
	OnListenerPanic func(*ListenerPanicEvent)
	OnRegister      func(machineID string)
	OnUnregister    func(machineID string)
}
