package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/solenne/chartest/internal/statechart"
)

// Scenario declares one harness run: the subject chart, the tester charts
// observing it, and the event sequence driving the subject.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains the property under test.
	Description string `yaml:"description"`

	// Subject is the path to the subject chart, relative to the scenario
	// file unless absolute.
	Subject string `yaml:"subject"`

	// Testers lists paths to tester charts, in relay order.
	Testers []string `yaml:"testers,omitempty"`

	// Events is the scenario the subject consumes, in order.
	Events []EventDoc `yaml:"events,omitempty"`

	// MaxSteps bounds the run; 0 means unbounded. A bound stops charts
	// that admit infinite eventless progress from looping forever.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// EventDoc is the YAML shape of a scenario event.
type EventDoc struct {
	Name    string         `yaml:"name"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Event converts the document to a statechart event.
func (d EventDoc) Event() *statechart.Event {
	return statechart.NewEvent(d.Name, d.Payload)
}

// LoadScenario reads and parses a scenario YAML file. Chart paths are
// resolved relative to the scenario file's directory. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	base := filepath.Dir(path)
	if !filepath.IsAbs(scenario.Subject) && scenario.Subject != "" {
		scenario.Subject = filepath.Join(base, scenario.Subject)
	}
	for i, tester := range scenario.Testers {
		if !filepath.IsAbs(tester) {
			scenario.Testers[i] = filepath.Join(base, tester)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if _, err := os.Stat(s.Subject); os.IsNotExist(err) {
		return fmt.Errorf("subject chart not found: %s", s.Subject)
	}
	for _, tester := range s.Testers {
		if _, err := os.Stat(tester); os.IsNotExist(err) {
			return fmt.Errorf("tester chart not found: %s", tester)
		}
	}
	for i, ev := range s.Events {
		if ev.Name == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}
	return nil
}
