// Package testutil provides deterministic helpers shared by tests: fixed
// run identifiers and small prebuilt statecharts.
package testutil

import "github.com/solenne/chartest/internal/statechart"

// MustSeal seals a chart and panics on error. For test fixtures only.
func MustSeal(chart *statechart.Chart) *statechart.Chart {
	if err := chart.Seal(); err != nil {
		panic(err)
	}
	return chart
}

// LinearChart builds a flat chart named name whose states chain
// s1 -> s2 -> ... -> sN, each hop triggered by the given event names
// (events[i] triggers si -> si+1; "" makes the hop eventless). The last
// state is final.
func LinearChart(name string, states []string, events []string) *statechart.Chart {
	chart := &statechart.Chart{Name: name, Initial: states[0]}
	for i, stateName := range states {
		s := &statechart.State{Name: stateName}
		if i == len(states)-1 {
			s.Final = true
		} else {
			s.Transitions = []*statechart.Transition{{
				Target: states[i+1],
				Event:  events[i],
			}}
		}
		chart.States = append(chart.States, s)
	}
	return MustSeal(chart)
}

// SubjectS123 is a minimal three-state subject: s1 -> s2 on "goto s2",
// then eventlessly s2 -> s3 (final).
func SubjectS123() *statechart.Chart {
	return LinearChart("subject", []string{"s1", "s2", "s3"}, []string{"goto s2", ""})
}
