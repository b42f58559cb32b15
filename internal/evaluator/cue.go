package evaluator

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// assignStmt matches "<identifier> = <expr>" but not comparison operators.
var assignStmt = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

// CueEvaluator evaluates expressions with the CUE SDK. The live context is
// encoded as a CUE struct and used as the expression scope, so an
// expression can reference context keys directly:
//
//	floor > 4
//	entered.s2
//	consumed == "goto s2"
//	context.destinations == []
//
// CueEvaluator is the default evaluator used by the interpreter engine when
// a descriptor names none.
type CueEvaluator struct {
	ctx *cue.Context
}

// NewCueEvaluator creates a CUE-backed evaluator.
func NewCueEvaluator() *CueEvaluator {
	return &CueEvaluator{ctx: cuecontext.New()}
}

// EvalBool evaluates expr against scope and returns its boolean value.
func (e *CueEvaluator) EvalBool(expr string, scope map[string]any) (bool, error) {
	v, err := e.eval(expr, scope)
	if err != nil {
		return false, err
	}
	b, err := v.Bool()
	if err != nil {
		return false, fmt.Errorf("expression %q is not boolean: %w", expr, err)
	}
	return b, nil
}

// Exec executes an "assert <expr>" or "<name> = <expr>" statement.
func (e *CueEvaluator) Exec(stmt string, ctx map[string]any) error {
	s := strings.TrimSpace(stmt)
	if s == "" {
		return nil
	}

	if expr, ok := strings.CutPrefix(s, "assert "); ok {
		expr = strings.TrimSpace(expr)
		truth, err := e.EvalBool(expr, ctx)
		if err != nil {
			return fmt.Errorf("assert %q: %w", expr, err)
		}
		if !truth {
			return &AssertionError{Expr: expr}
		}
		return nil
	}

	if m := assignStmt.FindStringSubmatch(s); m != nil {
		name, expr := m[1], strings.TrimSpace(m[2])
		v, err := e.eval(expr, ctx)
		if err != nil {
			return fmt.Errorf("assign %s: %w", name, err)
		}
		var out any
		if err := v.Decode(&out); err != nil {
			return fmt.Errorf("assign %s: cannot decode %q: %w", name, expr, err)
		}
		ctx[name] = out
		return nil
	}

	return fmt.Errorf("unsupported statement %q (want \"assert <expr>\" or \"<name> = <expr>\")", stmt)
}

// eval compiles expr with the scope encoded as a CUE value and returns the
// evaluated result.
func (e *CueEvaluator) eval(expr string, scope map[string]any) (cue.Value, error) {
	scopeVal := e.ctx.Encode(sanitizeScope(scope))
	if err := scopeVal.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("cannot encode context: %s", cueerrors.Details(err, nil))
	}
	v := e.ctx.CompileString(expr, cue.Scope(scopeVal), cue.InferBuiltins(true))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("expression %q: %s", expr, cueerrors.Details(err, nil))
	}
	v = v.Eval()
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("expression %q: %s", expr, cueerrors.Details(err, nil))
	}
	return v, nil
}

// sanitizeScope drops nil values, which CUE's Go encoder rejects. A missing
// key and a nil key are indistinguishable to expressions either way.
func sanitizeScope(scope map[string]any) map[string]any {
	out := make(map[string]any, len(scope))
	for k, v := range scope {
		if v == nil {
			continue
		}
		if m, ok := v.(map[string]any); ok {
			out[k] = sanitizeScope(m)
			continue
		}
		out[k] = v
	}
	return out
}
