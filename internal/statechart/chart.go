package statechart

import (
	"fmt"
)

// Chart is a hierarchical state-machine definition.
//
// The model is deliberately small: compound states with a single initial
// child, final states, entry/exit statements, and transitions carrying an
// optional triggering event, guard expression and action statement. Guard
// and action syntax is the evaluator's concern, not the model's.
type Chart struct {
	// Name identifies the chart in diagnostics and enriched failures.
	Name string

	// Initial is the name of the root state entered first.
	Initial string

	// States holds the root states in document order.
	States []*State

	byName map[string]*State
	names  []string
}

// State is a node of the chart. A state with children is compound and must
// name an Initial child. A Final state marks a terminated region: an engine
// whose active leaf states are all final is no longer running.
type State struct {
	Name        string
	Parent      *State
	Children    []*State
	Initial     string
	Final       bool
	OnEntry     []string
	OnExit      []string
	Transitions []*Transition
}

// Transition connects a source state to a target state.
type Transition struct {
	Source *State
	Target string

	// Event is the name of the triggering event; empty for an eventless
	// transition.
	Event string

	// Guard is an evaluator expression; empty means always enabled.
	Guard string

	// Action is an evaluator statement executed when the transition fires.
	Action string
}

// String renders "source -> target [on event]" for diagnostics.
func (t *Transition) String() string {
	src := "?"
	if t.Source != nil {
		src = t.Source.Name
	}
	if t.Event == "" {
		return fmt.Sprintf("%s -> %s", src, t.Target)
	}
	return fmt.Sprintf("%s -> %s on %q", src, t.Target, t.Event)
}

// Seal indexes the chart and validates its referential integrity. It must
// be called once after the state tree is assembled and before the chart is
// handed to an engine. Seal wires Parent pointers from the tree structure.
func (c *Chart) Seal() error {
	c.byName = make(map[string]*State)
	c.names = nil
	for _, s := range c.States {
		s.Parent = nil
		if err := c.index(s); err != nil {
			return err
		}
	}
	return c.validate()
}

func (c *Chart) index(s *State) error {
	if s.Name == "" {
		return fmt.Errorf("chart %q: state with empty name", c.Name)
	}
	if _, dup := c.byName[s.Name]; dup {
		return fmt.Errorf("chart %q: duplicate state name %q", c.Name, s.Name)
	}
	c.byName[s.Name] = s
	c.names = append(c.names, s.Name)
	for _, child := range s.Children {
		child.Parent = s
		if err := c.index(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chart) validate() error {
	if c.Name == "" {
		return fmt.Errorf("chart has no name")
	}
	if len(c.States) == 0 {
		return fmt.Errorf("chart %q: no states", c.Name)
	}
	if c.Initial == "" {
		return fmt.Errorf("chart %q: no initial state", c.Name)
	}
	if s, ok := c.byName[c.Initial]; !ok {
		return fmt.Errorf("chart %q: initial state %q does not exist", c.Name, c.Initial)
	} else if s.Parent != nil {
		return fmt.Errorf("chart %q: initial state %q is not a root state", c.Name, c.Initial)
	}
	for _, name := range c.names {
		s := c.byName[name]
		if len(s.Children) > 0 {
			if s.Initial == "" {
				return fmt.Errorf("chart %q: compound state %q has no initial child", c.Name, s.Name)
			}
			if !s.hasChild(s.Initial) {
				return fmt.Errorf("chart %q: state %q: initial child %q does not exist", c.Name, s.Name, s.Initial)
			}
		}
		for _, t := range s.Transitions {
			t.Source = s
			if t.Target == "" {
				return fmt.Errorf("chart %q: state %q: transition without target", c.Name, s.Name)
			}
			if _, ok := c.byName[t.Target]; !ok {
				return fmt.Errorf("chart %q: state %q: transition target %q does not exist", c.Name, s.Name, t.Target)
			}
		}
	}
	return nil
}

func (s *State) hasChild(name string) bool {
	for _, child := range s.Children {
		if child.Name == name {
			return true
		}
	}
	return false
}

// State returns the state with the given name.
func (c *Chart) State(name string) (*State, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// StateNames returns every state name in document order. The slice is
// shared; callers must not mutate it.
func (c *Chart) StateNames() []string {
	return c.names
}

// Depth returns the number of ancestors of s (0 for a root state).
func (s *State) Depth() int {
	d := 0
	for p := s.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Path returns the chain from the root ancestor of s down to s itself.
func (s *State) Path() []*State {
	var rev []*State
	for cur := s; cur != nil; cur = cur.Parent {
		rev = append(rev, cur)
	}
	path := make([]*State, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}
