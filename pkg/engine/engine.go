// Package engine evaluates invariants against a governance snapshot and
// assembles the resulting evidence into witnesses and bundles.
package engine

import (
	"log/slog"
	"time"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/canonicalize"
	"github.com/Mindburn-Labs/fak/pkg/faults"
)

// Config bounds a single VerifyInvariants call.
type Config struct {
	// MaxInvariants caps the invariant list length per call.
	MaxInvariants int
	// TimeoutSecs is the cooperative wall-clock budget. It is checked
	// between invariant evaluations only; a single slow check can overrun.
	TimeoutSecs float64
}

// DefaultConfig returns the standard resource limits.
func DefaultConfig() Config {
	return Config{MaxInvariants: 1000, TimeoutSecs: 30.0}
}

// Snapshot bundles the four governance artifacts an invariant is checked
// against.
type Snapshot struct {
	Trace        *artifact.ExecutionTrace
	Capabilities *artifact.CapabilityManifest
	CostLedger   *artifact.CostLedger
	PolicyIR     *artifact.PolicyIR
}

// Checker is the per-type checking contract. It returns true (pass), false
// (violation), or an error (recorded as a check_error counterexample; it
// does not abort the batch). The default checkers are structural
// placeholders; deployments substitute real analysis via RegisterChecker.
type Checker func(snap Snapshot, inv *artifact.InvariantSpec) (bool, error)

// Engine verifies governance invariants. An Engine is immutable after
// configuration and safe for concurrent use.
type Engine struct {
	cfg      Config
	checkers map[artifact.ProofType]Checker
	logger   *slog.Logger
}

// New creates an engine with default configuration.
func New() *Engine {
	return WithConfig(DefaultConfig())
}

// WithConfig creates an engine with custom resource limits.
func WithConfig(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		checkers: defaultCheckers(),
		logger:   slog.Default(),
	}
}

// WithLogger sets the engine's logger and returns the engine.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// RegisterChecker replaces the checking function for one proof type. Must
// be called before the engine is shared across goroutines.
func (e *Engine) RegisterChecker(pt artifact.ProofType, c Checker) {
	e.checkers[pt] = c
}

// Config returns the engine's resource limits.
func (e *Engine) Config() Config {
	return e.cfg
}

// VerifyInvariants evaluates invariants in order against the snapshot and
// returns a self-contained witness.
//
// Artifact validation failures and the invariant-count ceiling abort the
// call. Individual check failures do not: a violation or checker error is
// recorded as a counterexample and evaluation continues. Exhausting the
// wall-clock budget appends one final timeout counterexample and stops
// evaluating; the call still returns a witness.
//
// The proof id binds the input artifact ids and the ordered invariant
// names — not the outcome. Identical inputs and invariant sets share an id
// regardless of pass/fail.
func (e *Engine) VerifyInvariants(
	trace *artifact.ExecutionTrace,
	capabilities *artifact.CapabilityManifest,
	costLedger *artifact.CostLedger,
	policyIR *artifact.PolicyIR,
	invariants []artifact.InvariantSpec,
) (*artifact.ProofWitness, error) {
	if err := trace.Validate(); err != nil {
		return nil, err
	}
	if err := capabilities.Validate(); err != nil {
		return nil, err
	}
	if err := costLedger.Validate(); err != nil {
		return nil, err
	}
	if err := policyIR.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	if len(invariants) > e.cfg.MaxInvariants {
		return nil, &faults.ResourceLimit{
			Resource: "invariants",
			Limit:    e.cfg.MaxInvariants,
			Actual:   len(invariants),
		}
	}

	snap := Snapshot{Trace: trace, Capabilities: capabilities, CostLedger: costLedger, PolicyIR: policyIR}

	var counterexamples []artifact.CounterExample
	for i := range invariants {
		inv := &invariants[i]

		elapsed := time.Since(start).Seconds()
		if elapsed > e.cfg.TimeoutSecs {
			counterexamples = append(counterexamples, artifact.CounterExample{
				InvariantName: inv.Name,
				ErrorType:     artifact.ErrorTypeTimeout,
				Details: map[string]any{
					"reason":       "Verification timed out",
					"elapsed_secs": elapsed,
					"limit_secs":   e.cfg.TimeoutSecs,
				},
			})
			break
		}

		passed, err := e.checkInvariant(snap, inv)
		switch {
		case err != nil:
			counterexamples = append(counterexamples, artifact.CounterExample{
				InvariantName: inv.Name,
				ErrorType:     artifact.ErrorTypeCheckError,
				Details:       map[string]any{"error": err.Error()},
			})
		case !passed:
			counterexamples = append(counterexamples, artifact.CounterExample{
				InvariantName: inv.Name,
				ErrorType:     artifact.ErrorTypeViolation,
				Details: map[string]any{
					"reason":         "Invariant violated",
					"invariant_type": inv.InvariantType.String(),
				},
			})
		}
	}

	names := make([]string, len(invariants))
	for i := range invariants {
		names[i] = invariants[i].Name
	}
	proofID := canonicalize.Hash(map[string]any{
		"trace_id":        trace.ID,
		"capabilities_id": capabilities.ID,
		"cost_ledger_id":  costLedger.ID,
		"policy_ir_id":    policyIR.ID,
		"invariant_names": names,
	})

	witness := &artifact.ProofWitness{ProofID: proofID}
	var err error
	if witness.ExecutionTrace, err = artifact.DeepCopy(*trace); err != nil {
		return nil, err
	}
	if witness.CapabilityManifest, err = artifact.DeepCopy(*capabilities); err != nil {
		return nil, err
	}
	if witness.CostLedger, err = artifact.DeepCopy(*costLedger); err != nil {
		return nil, err
	}
	if witness.PolicyIR, err = artifact.DeepCopy(*policyIR); err != nil {
		return nil, err
	}
	if witness.Invariants, err = artifact.DeepCopy(invariants); err != nil {
		return nil, err
	}
	witness.CounterExamples = counterexamples

	e.logger.Debug("invariants verified",
		"proof_id", proofID,
		"invariants", len(invariants),
		"counterexamples", len(counterexamples),
		"elapsed", time.Since(start))

	return witness, nil
}

func (e *Engine) checkInvariant(snap Snapshot, inv *artifact.InvariantSpec) (bool, error) {
	if err := inv.Validate(); err != nil {
		return false, err
	}
	checker, ok := e.checkers[inv.InvariantType]
	if !ok {
		return false, &faults.UnknownProofType{Value: string(inv.InvariantType)}
	}
	return checker(snap, inv)
}

// GenerateBundle assembles witnesses into a content-addressed bundle. The
// witness list must be non-empty and every witness must validate. The
// bundle id binds the ordered witness proof ids and the (empty) metadata.
func (e *Engine) GenerateBundle(witnesses []artifact.ProofWitness) (*artifact.ProofBundle, error) {
	if len(witnesses) == 0 {
		return nil, &faults.Validation{Field: "witnesses", Message: "cannot create bundle with zero witnesses"}
	}
	for i := range witnesses {
		if err := witnesses[i].Validate(); err != nil {
			return nil, err
		}
	}

	proofIDs := make([]string, len(witnesses))
	for i := range witnesses {
		proofIDs[i] = witnesses[i].ProofID
	}
	bundleID := canonicalize.Hash(map[string]any{
		"witnesses": proofIDs,
		"metadata":  map[string]any{},
	})

	copied, err := artifact.DeepCopy(witnesses)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("bundle generated", "bundle_id", bundleID, "witnesses", len(witnesses))

	return &artifact.ProofBundle{
		ID:        bundleID,
		Witnesses: copied,
		Metadata:  map[string]any{},
	}, nil
}
