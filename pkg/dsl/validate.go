package dsl

import (
	"fmt"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Validate checks a definition for consistency and returns a list of
// human-readable problems. An empty slice means the definition is sound.
//
// These are advisory checks: the registry itself accepts any definition,
// since handler transitions registered later in code can reach states no
// definition file mentions.
func Validate(def domain.Definition) []string {
	var problems []string

	known := make(map[domain.StateID]bool, len(def.States))
	for state := range def.States {
		known[state] = true
	}
	for from, events := range def.Transitions {
		known[from] = true
		for _, t := range events {
			if target := t.Target(); target != "" {
				known[target] = true
			}
		}
	}

	initial := def.Initial
	if initial == "" {
		initial = domain.DefaultInitialState
	}
	if len(known) > 0 && !known[initial] {
		problems = append(problems, fmt.Sprintf("initial state %q has no transitions and no metadata", initial))
	}

	// Literal targets with no outgoing transitions and no metadata are
	// probably typos rather than intentional sink states.
	for from, events := range def.Transitions {
		for event, t := range events {
			target := t.Target()
			if target == "" {
				continue
			}
			_, hasMeta := def.States[target]
			_, hasOutgoing := def.Transitions[target]
			if !hasMeta && !hasOutgoing {
				problems = append(problems, fmt.Sprintf("transition %s/%s targets %q, which has no transitions and no metadata", from, event, target))
			}
		}
	}
	return problems
}
