// Package engine implements the default synchronous interpreter for
// statechart definitions.
//
// The interpreter is deliberately single-threaded and cooperative: every
// state transition happens inside an ExecuteStep call, and callers fully
// control pacing. Events queue in FIFO order via Send and are consumed one
// per step; eventless transitions take priority over queued events.
//
// Transition selection is deterministic: the first enabled transition in
// document order wins. Parallel regions and history states are not
// modeled; a chart describes a single region of (possibly nested) states.
package engine
