package domain

// Handler computes the outcome of a transition from the machine's current
// context and the event payload. The context map is the live machine
// context; handlers must treat it as read-only and return changes through
// Outcome.Context.
type Handler func(ctx map[string]any, payload any) Outcome

// Outcome is the result computed by a Handler.
type Outcome struct {
	// State is the target state. Empty means "stay in the current state".
	State StateID

	// Context is shallow-merged into the machine context. Keys in the
	// patch win; existing keys not present in the patch are preserved.
	Context map[string]any

	// Data is forwarded untouched to listeners and the send result.
	Data any
}

type transitionKind int

const (
	kindLiteral transitionKind = iota
	kindHandler
)

// Transition is a rule for moving between states. It is a tagged union:
// either a literal target state (To) or a Handler (Handle). The zero
// value is a literal transition to the empty state and is invalid.
type Transition struct {
	kind    transitionKind
	target  StateID
	handler Handler
}

// To builds a literal transition to a fixed target state.
func To(target StateID) Transition {
	return Transition{kind: kindLiteral, target: target}
}

// Handle builds a handler transition. The handler runs on every delivery
// of the matching event and decides the target state dynamically.
func Handle(fn Handler) Transition {
	return Transition{kind: kindHandler, handler: fn}
}

// IsHandler reports whether the transition carries a handler.
func (t Transition) IsHandler() bool {
	return t.kind == kindHandler
}

// Target returns the literal target state, or "" for handler transitions.
func (t Transition) Target() StateID {
	if t.kind == kindHandler {
		return ""
	}
	return t.target
}

// IsZero reports whether the transition was never initialized via To or Handle.
func (t Transition) IsZero() bool {
	return t.kind == kindLiteral && t.target == "" && t.handler == nil
}

// Resolve executes the transition against the current state, context and
// payload, dispatching on the union tag. A handler that omits the target
// state resolves to the current state.
func (t Transition) Resolve(current StateID, ctx map[string]any, payload any) Outcome {
	if t.kind == kindHandler {
		out := t.handler(ctx, payload)
		if out.State == "" {
			out.State = current
		}
		return out
	}
	return Outcome{State: t.target}
}
