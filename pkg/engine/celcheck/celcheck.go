// Package celcheck provides a CEL-backed invariant checker that evaluates
// an invariant's precondition and postcondition expressions against the
// governance snapshot.
//
// It is the shipped example of replacing the engine's structural default
// checkers with genuine analysis: same tri-state contract, registered per
// proof type via Engine.RegisterChecker. The expressions see four dynamic
// variables: trace, capabilities, ledger, policy.
package celcheck

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/engine"
)

// Evaluator compiles and caches CEL programs for invariant expressions.
// Safe for concurrent use.
type Evaluator struct {
	env   *cel.Env
	mu    sync.RWMutex
	cache map[string]cel.Program
}

// New creates an evaluator with the snapshot variables declared.
func New() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("trace", cel.DynType),
		cel.Variable("capabilities", cel.DynType),
		cel.Variable("ledger", cel.DynType),
		cel.Variable("policy", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("celcheck: environment: %w", err)
	}
	return &Evaluator{env: env, cache: make(map[string]cel.Program)}, nil
}

// Checker adapts the evaluator to the engine's checking contract.
//
// Semantics: an absent precondition means the invariant applies; a
// precondition evaluating false means it is vacuously satisfied. When
// applicable, the postcondition (if any) decides pass or violation.
// Compile and evaluation errors surface as checker errors, which the
// engine records as check_error counterexamples.
func (e *Evaluator) Checker() engine.Checker {
	return func(snap engine.Snapshot, inv *artifact.InvariantSpec) (bool, error) {
		input, err := snapshotInput(snap)
		if err != nil {
			return false, err
		}

		if inv.Precondition != nil {
			applicable, err := e.evaluate(*inv.Precondition, input)
			if err != nil {
				return false, fmt.Errorf("precondition: %w", err)
			}
			if !applicable {
				return true, nil
			}
		}

		if inv.Postcondition == nil {
			return true, nil
		}
		held, err := e.evaluate(*inv.Postcondition, input)
		if err != nil {
			return false, fmt.Errorf("postcondition: %w", err)
		}
		return held, nil
	}
}

func (e *Evaluator) evaluate(expr string, input map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q is not boolean (got %T)", expr, out.Value())
	}
	return result, nil
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	e.mu.Lock()
	e.cache[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// snapshotInput reduces the artifacts to generic JSON maps so CEL sees the
// same field names the wire format uses.
func snapshotInput(snap engine.Snapshot) (map[string]any, error) {
	trace, err := artifact.DeepCopy[any](*snap.Trace)
	if err != nil {
		return nil, err
	}
	capabilities, err := artifact.DeepCopy[any](*snap.Capabilities)
	if err != nil {
		return nil, err
	}
	ledger, err := artifact.DeepCopy[any](*snap.CostLedger)
	if err != nil {
		return nil, err
	}
	policy, err := artifact.DeepCopy[any](*snap.PolicyIR)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"trace":        trace,
		"capabilities": capabilities,
		"ledger":       ledger,
		"policy":       policy,
	}, nil
}
