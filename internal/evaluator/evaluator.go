// Package evaluator defines how guard expressions and action statements of
// a statechart are evaluated against the live execution context.
//
// The default implementation compiles expressions with the CUE SDK, using
// the context as the expression scope. Statements come in two forms:
//
//	assert <expr>     fail the run when <expr> is not true
//	<name> = <expr>   assign the evaluated expression to a context key
//
// A failed assert yields an *AssertionError, the failure type the harness
// catches and enriches. Every other evaluation problem (syntax error,
// non-boolean guard, unknown reference) is an ordinary error and propagates
// unchanged.
package evaluator

import "fmt"

// Evaluator evaluates guard expressions and executes action statements.
// Implementations need not be safe for concurrent use; engines call them
// from a single goroutine.
type Evaluator interface {
	// EvalBool evaluates expr with the given scope and returns its boolean
	// value. A non-boolean result is an error.
	EvalBool(expr string, scope map[string]any) (bool, error)

	// Exec executes a statement against the context. Assignments mutate
	// ctx in place. A failed assert returns an *AssertionError.
	Exec(stmt string, ctx map[string]any) error
}

// AssertionError is raised by a statechart's own assert statements when an
// expected property is violated. The harness distinguishes it from engine
// and evaluator failures with errors.As.
type AssertionError struct {
	// Expr is the asserted expression that evaluated to false.
	Expr string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s", e.Expr)
}
