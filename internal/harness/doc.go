// Package harness synchronizes a statechart execution under test with a
// set of tester statecharts that observe it.
//
// A Configuration declares the subject and its testers; BuildHarness turns
// it into a running Harness. The harness drives the subject with a scenario
// of events and converts each observed step into a synthetic lifecycle
// event plus an observation context, both relayed to every tester in order:
//
//	start                      once, at construction
//	step                       once per executed subject step
//	stop                       once, when the subject terminates
//
// Testers express expectations as assert statements in their own guards
// and actions. When one fails, the harness enriches the failure with the
// subject and tester identity, both active configurations and the
// originating step, and surfaces it as a *TestError. Once the subject has
// terminated, every tester must have reached a final configuration;
// a still-running tester surfaces as a *FinalityError.
//
// Everything is synchronous and single-threaded: the subject executes
// strictly before the relay for the same step, testers receive each
// synthetic event in configuration order, and each tester runs to
// quiescence before the next one sees the event.
package harness
