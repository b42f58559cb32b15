package engine

import (
	"fmt"
	"sort"

	"github.com/solenne/chartest/internal/evaluator"
	"github.com/solenne/chartest/internal/statechart"
)

// Engine interprets one statechart definition. It owns the event queue,
// the active configuration and the live evaluation context. Not safe for
// concurrent use; the harness drives subject and tester engines from a
// single goroutine.
type Engine struct {
	chart   *statechart.Chart
	eval    evaluator.Evaluator
	queue   []*statechart.Event
	active  map[string]*statechart.State
	context map[string]any
	started bool
}

// New creates an engine for the given chart. The chart must have been
// sealed. A nil evaluator defaults to the CUE evaluator. The initial state
// is entered on the first ExecuteStep call, so the first step's entered
// set reflects the initial entry.
func New(chart *statechart.Chart, eval evaluator.Evaluator) *Engine {
	if eval == nil {
		eval = evaluator.NewCueEvaluator()
	}
	return &Engine{
		chart:   chart,
		eval:    eval,
		active:  make(map[string]*statechart.State),
		context: make(map[string]any),
	}
}

// Chart returns the interpreted statechart definition.
func (e *Engine) Chart() *statechart.Chart {
	return e.chart
}

// Context returns the live evaluation context. The harness overlays
// observation keys into it for tester engines; the engine's own actions
// mutate it through assignments.
func (e *Engine) Context() map[string]any {
	return e.context
}

// Send enqueues an event for future processing. It never executes the
// event immediately.
func (e *Engine) Send(ev *statechart.Event) {
	e.queue = append(e.queue, ev)
}

// Configuration returns the names of the currently active states, sorted.
func (e *Engine) Configuration() []string {
	names := make([]string, 0, len(e.active))
	for name := range e.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Running reports whether at least one active leaf state is non-final.
func (e *Engine) Running() bool {
	if !e.started {
		return true
	}
	for _, s := range e.active {
		if e.isActiveLeaf(s) && !s.Final {
			return true
		}
	}
	return false
}

// isActiveLeaf reports whether s has no active descendant.
func (e *Engine) isActiveLeaf(s *statechart.State) bool {
	for _, child := range s.Children {
		if _, ok := e.active[child.Name]; ok {
			return false
		}
	}
	return true
}

// ExecuteStep performs exactly one unit of progress and returns the step
// taken, or nil when no progress is possible. The first call performs the
// initial entry. Subsequent calls fire an enabled eventless transition if
// any, otherwise consume the next queued event. A consumed event that
// enables no transition still yields a step recording the consumption.
func (e *Engine) ExecuteStep() (*statechart.Step, error) {
	if !e.started {
		e.started = true
		entered, err := e.enterInitial()
		if err != nil {
			return nil, err
		}
		return &statechart.Step{Entered: entered}, nil
	}

	t, err := e.findTransition(nil)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return e.fire(t, nil)
	}

	if len(e.queue) == 0 {
		return nil, nil
	}
	ev := e.queue[0]
	e.queue = e.queue[1:]

	t, err = e.findTransition(ev)
	if err != nil {
		return nil, err
	}
	if t == nil {
		// Event consumed without enabling anything.
		return &statechart.Step{Event: ev}, nil
	}
	return e.fire(t, ev)
}

// Execute repeatedly calls ExecuteStep and collects the produced steps,
// stopping when the engine makes no further progress or when maxSteps
// (if positive) steps have been collected.
func (e *Engine) Execute(maxSteps int) ([]*statechart.Step, error) {
	var steps []*statechart.Step
	for {
		step, err := e.ExecuteStep()
		if err != nil {
			return steps, err
		}
		if step == nil {
			return steps, nil
		}
		steps = append(steps, step)
		if maxSteps > 0 && len(steps) == maxSteps {
			return steps, nil
		}
	}
}

// enterInitial enters the chart's initial state chain, outer to inner,
// descending initial pointers of compound states down to a leaf.
func (e *Engine) enterInitial() ([]string, error) {
	s, ok := e.chart.State(e.chart.Initial)
	if !ok {
		return nil, fmt.Errorf("chart %q: initial state %q not found", e.chart.Name, e.chart.Initial)
	}
	return e.enterChain(s)
}

// enterChain activates every state from s down its initial pointers,
// running entry statements along the way.
func (e *Engine) enterChain(s *statechart.State) ([]string, error) {
	var entered []string
	for cur := s; cur != nil; {
		if err := e.enter(cur); err != nil {
			return entered, err
		}
		entered = append(entered, cur.Name)
		if cur.Initial == "" {
			break
		}
		next, ok := e.chart.State(cur.Initial)
		if !ok || next.Parent != cur {
			return entered, fmt.Errorf("chart %q: state %q: invalid initial child %q", e.chart.Name, cur.Name, cur.Initial)
		}
		cur = next
	}
	return entered, nil
}

func (e *Engine) enter(s *statechart.State) error {
	e.active[s.Name] = s
	for _, stmt := range s.OnEntry {
		if err := e.eval.Exec(stmt, e.context); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) exit(s *statechart.State) error {
	for _, stmt := range s.OnExit {
		if err := e.eval.Exec(stmt, e.context); err != nil {
			return err
		}
	}
	delete(e.active, s.Name)
	return nil
}

// findTransition returns the first enabled transition in document order
// whose source is active and whose event matches ev (nil selects eventless
// transitions only).
func (e *Engine) findTransition(ev *statechart.Event) (*statechart.Transition, error) {
	for _, name := range e.chart.StateNames() {
		s, _ := e.chart.State(name)
		if _, isActive := e.active[s.Name]; !isActive {
			continue
		}
		for _, t := range s.Transitions {
			if ev == nil && t.Event != "" {
				continue
			}
			if ev != nil && t.Event != ev.Name() {
				continue
			}
			enabled, err := e.guardHolds(t, ev)
			if err != nil {
				return nil, err
			}
			if enabled {
				return t, nil
			}
		}
	}
	return nil, nil
}

// guardHolds evaluates the transition guard with the live context plus the
// triggering event's payload bound to "event".
func (e *Engine) guardHolds(t *statechart.Transition, ev *statechart.Event) (bool, error) {
	if t.Guard == "" {
		return true, nil
	}
	scope := make(map[string]any, len(e.context)+1)
	for k, v := range e.context {
		scope[k] = v
	}
	if ev != nil && ev.Payload() != nil {
		scope["event"] = ev.Payload()
	} else {
		scope["event"] = map[string]any{}
	}
	holds, err := e.eval.EvalBool(t.Guard, scope)
	if err != nil {
		return false, fmt.Errorf("guard of %s: %w", t, err)
	}
	return holds, nil
}

// fire executes the transition: exits the source branch up to (excluding)
// the least common ancestor with the target, runs the transition action,
// then enters the target branch.
func (e *Engine) fire(t *statechart.Transition, ev *statechart.Event) (*statechart.Step, error) {
	target, ok := e.chart.State(t.Target)
	if !ok {
		return nil, fmt.Errorf("chart %q: transition target %q not found", e.chart.Name, t.Target)
	}

	lca := leastCommonAncestor(t.Source, target)

	// topExited is the outermost state leaving the configuration: the
	// ancestor-or-self of the source directly below the LCA.
	topExited := t.Source
	for topExited.Parent != lca {
		topExited = topExited.Parent
	}

	exited, err := e.exitBranch(topExited)
	if err != nil {
		return nil, err
	}

	if t.Action != "" {
		if err := e.eval.Exec(t.Action, e.context); err != nil {
			return nil, err
		}
	}

	// Enter the target's ancestors below the LCA, outer to inner, then the
	// target itself and its initial descent.
	var toEnter []*statechart.State
	for _, s := range target.Path() {
		if s.Depth() > depthOf(lca) && s != target {
			toEnter = append(toEnter, s)
		}
	}
	var entered []string
	for _, s := range toEnter {
		if err := e.enter(s); err != nil {
			return nil, err
		}
		entered = append(entered, s.Name)
	}
	chain, err := e.enterChain(target)
	entered = append(entered, chain...)
	if err != nil {
		return nil, err
	}

	return &statechart.Step{
		Entered:    entered,
		Exited:     exited,
		Event:      ev,
		Transition: t,
	}, nil
}

// exitBranch exits top and every active descendant of it, inner to outer.
func (e *Engine) exitBranch(top *statechart.State) ([]string, error) {
	var branch []*statechart.State
	for _, s := range e.active {
		if isDescendantOrSelf(s, top) {
			branch = append(branch, s)
		}
	}
	// Inner to outer: deepest first; document order is irrelevant here
	// because a single region has one active path.
	sort.Slice(branch, func(i, j int) bool { return branch[i].Depth() > branch[j].Depth() })

	var exited []string
	for _, s := range branch {
		if err := e.exit(s); err != nil {
			return exited, err
		}
		exited = append(exited, s.Name)
	}
	return exited, nil
}

func isDescendantOrSelf(s, ancestor *statechart.State) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// leastCommonAncestor returns the deepest state that is a proper ancestor
// of both a and b, or nil when the branches only meet at the chart root.
// A self-transition's LCA is the state's parent, so the state is exited
// and re-entered.
func leastCommonAncestor(a, b *statechart.State) *statechart.State {
	ancestors := make(map[*statechart.State]bool)
	for cur := a.Parent; cur != nil; cur = cur.Parent {
		ancestors[cur] = true
	}
	for cur := b.Parent; cur != nil; cur = cur.Parent {
		if ancestors[cur] {
			return cur
		}
	}
	return nil
}

func depthOf(s *statechart.State) int {
	if s == nil {
		return -1
	}
	return s.Depth()
}
