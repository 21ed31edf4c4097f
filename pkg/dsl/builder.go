package dsl

import (
	"fmt"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Builder assembles a machine definition in code. It is the programmatic
// counterpart of the YAML schema and supports handler transitions, which
// the file format cannot express.
type Builder struct {
	def    domain.Definition
	states map[domain.StateID]*StateBuilder
	order  []domain.StateID
}

// New creates a new definition builder.
func New() *Builder {
	return &Builder{
		states: make(map[domain.StateID]*StateBuilder),
	}
}

// Initial sets the starting state.
func (b *Builder) Initial(state string) *Builder {
	b.def.Initial = domain.StateID(state)
	return b
}

// Context seeds a context value.
func (b *Builder) Context(key string, value any) *Builder {
	if b.def.Context == nil {
		b.def.Context = make(map[string]any)
	}
	b.def.Context[key] = value
	return b
}

// State declares a state and returns its fluent builder.
// Declaring the same state twice returns the existing builder.
func (b *Builder) State(id string) *StateBuilder {
	sid := domain.StateID(id)
	if sb, ok := b.states[sid]; ok {
		return sb
	}
	sb := &StateBuilder{id: sid, builder: b}
	b.states[sid] = sb
	b.order = append(b.order, sid)
	return sb
}

// Build compiles the accumulated states into a definition.
func (b *Builder) Build() (domain.Definition, error) {
	def := b.def
	for _, sid := range b.order {
		sb := b.states[sid]
		if len(sb.meta) > 0 {
			if def.States == nil {
				def.States = make(map[domain.StateID]map[string]any)
			}
			def.States[sid] = sb.meta
		}
		for _, tr := range sb.transitions {
			if tr.transition.IsZero() {
				return domain.Definition{}, fmt.Errorf("state %q: transition on %q has no target", sid, tr.event)
			}
			if def.Transitions == nil {
				def.Transitions = make(map[domain.StateID]map[domain.EventID]domain.Transition)
			}
			row := def.Transitions[sid]
			if row == nil {
				row = make(map[domain.EventID]domain.Transition)
				def.Transitions[sid] = row
			}
			if _, dup := row[tr.event]; dup {
				return domain.Definition{}, fmt.Errorf("state %q: duplicate transition on %q", sid, tr.event)
			}
			row[tr.event] = tr.transition
		}
	}
	return def, nil
}

// StateBuilder provides a fluent API for configuring one state.
type StateBuilder struct {
	id          domain.StateID
	meta        map[string]any
	transitions []pendingTransition
	builder     *Builder
}

type pendingTransition struct {
	event      domain.EventID
	transition domain.Transition
}

// Meta attaches descriptive metadata to the state.
func (s *StateBuilder) Meta(key string, value any) *StateBuilder {
	if s.meta == nil {
		s.meta = make(map[string]any)
	}
	s.meta[key] = value
	return s
}

// On adds a literal transition: on event, go to target.
func (s *StateBuilder) On(event, target string) *StateBuilder {
	s.transitions = append(s.transitions, pendingTransition{
		event:      domain.EventID(event),
		transition: domain.To(domain.StateID(target)),
	})
	return s
}

// OnFunc adds a handler transition: on event, run fn to decide the outcome.
func (s *StateBuilder) OnFunc(event string, fn domain.Handler) *StateBuilder {
	s.transitions = append(s.transitions, pendingTransition{
		event:      domain.EventID(event),
		transition: domain.Handle(fn),
	})
	return s
}

// State declares another state on the parent builder, allowing chained
// definitions without breaking the fluent flow.
func (s *StateBuilder) State(id string) *StateBuilder {
	return s.builder.State(id)
}

// Build compiles the parent builder. Convenience terminator for chains.
func (s *StateBuilder) Build() (domain.Definition, error) {
	return s.builder.Build()
}
