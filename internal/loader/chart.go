// Package loader reads statechart and scenario documents from YAML and
// turns a scenario into a harness run.
package loader

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solenne/chartest/internal/statechart"
)

// chartDoc is the YAML document shape for a statechart definition.
type chartDoc struct {
	Statechart stateChartDoc `yaml:"statechart"`
}

type stateChartDoc struct {
	Name    string     `yaml:"name"`
	Initial string     `yaml:"initial"`
	States  []stateDoc `yaml:"states"`
}

type stateDoc struct {
	Name        string          `yaml:"name"`
	Initial     string          `yaml:"initial,omitempty"`
	Final       bool            `yaml:"final,omitempty"`
	OnEntry     []string        `yaml:"on_entry,omitempty"`
	OnExit      []string        `yaml:"on_exit,omitempty"`
	States      []stateDoc      `yaml:"states,omitempty"`
	Transitions []transitionDoc `yaml:"transitions,omitempty"`
}

type transitionDoc struct {
	Target string `yaml:"target"`
	Event  string `yaml:"event,omitempty"`
	Guard  string `yaml:"guard,omitempty"`
	Action string `yaml:"action,omitempty"`
}

// LoadChart reads and parses a statechart YAML file. Unknown fields are
// rejected to catch typos, and the resulting chart is sealed, so
// referential problems surface at load time rather than mid-run.
func LoadChart(path string) (*statechart.Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	return ParseChart(data)
}

// ParseChart parses a statechart document from YAML bytes.
func ParseChart(data []byte) (*statechart.Chart, error) {
	var doc chartDoc
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse chart YAML: %w", err)
	}

	chart := &statechart.Chart{
		Name:    doc.Statechart.Name,
		Initial: doc.Statechart.Initial,
	}
	for _, sd := range doc.Statechart.States {
		chart.States = append(chart.States, buildState(sd))
	}
	if err := chart.Seal(); err != nil {
		return nil, fmt.Errorf("invalid chart: %w", err)
	}
	return chart, nil
}

func buildState(sd stateDoc) *statechart.State {
	s := &statechart.State{
		Name:    sd.Name,
		Initial: sd.Initial,
		Final:   sd.Final,
		OnEntry: sd.OnEntry,
		OnExit:  sd.OnExit,
	}
	for _, child := range sd.States {
		s.Children = append(s.Children, buildState(child))
	}
	for _, td := range sd.Transitions {
		s.Transitions = append(s.Transitions, &statechart.Transition{
			Target: td.Target,
			Event:  td.Event,
			Guard:  td.Guard,
			Action: td.Action,
		})
	}
	return s
}
