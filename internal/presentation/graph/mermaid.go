package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	VisitedStates []domain.StateID
	CurrentState  domain.StateID
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a
// machine's flat transition table.
// Literal transitions render as solid labeled arrows; handler transitions
// have no static target, so they render as dashed self-referencing arrows
// annotated with the event name.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(entries []registry.TableEntry, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Collect every state mentioned by the table, in first-seen order.
	seen := make(map[domain.StateID]bool)
	var states []domain.StateID
	note := func(s domain.StateID) {
		if s != "" && !seen[s] {
			seen[s] = true
			states = append(states, s)
		}
	}
	for _, e := range entries {
		note(e.From)
		note(e.Target)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	for _, state := range states {
		safeID := sanitizeMermaidID(string(state))
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, state))
	}

	for _, e := range entries {
		safeFrom := sanitizeMermaidID(string(e.From))
		// Escape double quotes in event names for Mermaid labels
		safeEvent := strings.ReplaceAll(string(e.Event), "\"", "'")

		if e.Handler {
			// Dynamic target: annotate as a dashed loop on the source.
			sb.WriteString(fmt.Sprintf("    %s -. \"%s ƒ\" .-> %s\n", safeFrom, safeEvent, safeFrom))
			continue
		}
		safeTo := sanitizeMermaidID(string(e.Target))
		sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeFrom, safeEvent, safeTo))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		// Deduplicate visited states (using safeIDs)
		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(string(id))
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentState != "" {
			safeCurrent := sanitizeMermaidID(string(overlay.CurrentState))
			sb.WriteString(fmt.Sprintf("    class %s current;\n", safeCurrent))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
