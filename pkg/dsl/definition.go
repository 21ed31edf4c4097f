package dsl

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// fileDefinition is the YAML schema of one machine definition file.
// Mapstructure tags match the YAML keys after generic decoding.
type fileDefinition struct {
	ID          string                       `mapstructure:"id"`
	Initial     string                       `mapstructure:"initial"`
	States      map[string]map[string]any    `mapstructure:"states"`
	Context     map[string]any               `mapstructure:"context"`
	Transitions map[string]map[string]string `mapstructure:"transitions"`
}

// Parse decodes one YAML definition document into the machine ID and its
// domain definition.
func Parse(data []byte) (string, domain.Definition, error) {
	// Decode generically first, then map into the typed schema. This
	// keeps open-ended blocks (context, state metadata) as plain maps.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", domain.Definition{}, fmt.Errorf("invalid yaml: %w", err)
	}

	var fd fileDefinition
	if err := mapstructure.Decode(raw, &fd); err != nil {
		return "", domain.Definition{}, fmt.Errorf("invalid definition schema: %w", err)
	}
	if fd.ID == "" {
		return "", domain.Definition{}, fmt.Errorf("definition is missing an id")
	}

	def := domain.Definition{
		Initial: domain.StateID(fd.Initial),
		Context: fd.Context,
	}
	if len(fd.States) > 0 {
		def.States = make(map[domain.StateID]map[string]any, len(fd.States))
		for state, meta := range fd.States {
			def.States[domain.StateID(state)] = meta
		}
	}
	if len(fd.Transitions) > 0 {
		def.Transitions = make(map[domain.StateID]map[domain.EventID]domain.Transition, len(fd.Transitions))
		for from, events := range fd.Transitions {
			row := make(map[domain.EventID]domain.Transition, len(events))
			for event, target := range events {
				if target == "" {
					return "", domain.Definition{}, fmt.Errorf("transition %s/%s has an empty target", from, event)
				}
				row[domain.EventID(event)] = domain.To(domain.StateID(target))
			}
			def.Transitions[domain.StateID(from)] = row
		}
	}
	return fd.ID, def, nil
}
