// Package verifier re-checks proof bundles without trusting any stored
// identifier. It re-derives the bundle id from witness content and re-runs
// invariant evaluation with each witness's own embedded artifacts, so a
// tampered or hand-edited bundle is caught even when its fields are
// internally consistent.
//
// The verifier never fails the call itself: every failure mode is encoded
// in the returned result, so batch verification of many bundles proceeds
// uninterrupted.
package verifier

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/canonicalize"
	"github.com/Mindburn-Labs/fak/pkg/engine"
)

// WitnessResult is the verification outcome for a single witness.
type WitnessResult struct {
	ProofID             string `json:"proof_id"`
	Success             bool   `json:"success"`
	InvariantCount      int    `json:"invariant_count"`
	CounterExampleCount int    `json:"counterexample_count"`
	Error               string `json:"error,omitempty"`
}

// BundleResult is the verification outcome for an entire bundle.
type BundleResult struct {
	BundleID       string          `json:"bundle_id"`
	Success        bool            `json:"success"`
	WitnessResults []WitnessResult `json:"witness_results"`
	Error          string          `json:"error,omitempty"`
}

// Verifier independently re-checks proof bundles. Safe for concurrent use.
type Verifier struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a verifier with default engine configuration.
func New() *Verifier {
	return WithConfig(engine.DefaultConfig())
}

// WithConfig creates a verifier whose re-verification engine uses cfg.
func WithConfig(cfg engine.Config) *Verifier {
	return &Verifier{engine: engine.WithConfig(cfg), logger: slog.Default()}
}

// WithLogger sets the verifier's logger and returns the verifier.
func (v *Verifier) WithLogger(logger *slog.Logger) *Verifier {
	v.logger = logger
	return v
}

// VerifyBundle re-checks a bundle end to end:
//
//  1. structural validation of the bundle and every witness,
//  2. recomputation of the bundle id from witness proof ids (the stored id
//     is compared, never trusted),
//  3. per-witness re-run of invariant evaluation with the witness's own
//     embedded artifacts, comparing the recomputed proof id.
//
// Overall success is the conjunction of witness successes; a bundle with
// zero witnesses (only constructible by hand) verifies vacuously.
func (v *Verifier) VerifyBundle(bundle *artifact.ProofBundle) *BundleResult {
	if err := bundle.Validate(); err != nil {
		return &BundleResult{BundleID: bundle.ID, Success: false, Error: err.Error()}
	}

	expectedID := computeBundleID(bundle)
	if expectedID != bundle.ID {
		return &BundleResult{
			BundleID: bundle.ID,
			Success:  false,
			Error:    fmt.Sprintf("Bundle ID mismatch: expected '%s', got '%s'", expectedID, bundle.ID),
		}
	}

	results := make([]WitnessResult, 0, len(bundle.Witnesses))
	success := true
	for i := range bundle.Witnesses {
		result := v.verifyWitness(&bundle.Witnesses[i])
		if !result.Success {
			success = false
		}
		results = append(results, result)
	}

	v.logger.Debug("bundle verified", "bundle_id", bundle.ID, "success", success, "witnesses", len(results))

	return &BundleResult{BundleID: bundle.ID, Success: success, WitnessResults: results}
}

func (v *Verifier) verifyWitness(w *artifact.ProofWitness) WitnessResult {
	if err := w.Validate(); err != nil {
		return WitnessResult{
			ProofID:        w.ProofID,
			Success:        false,
			InvariantCount: len(w.Invariants),
			Error:          err.Error(),
		}
	}

	reverified, err := v.engine.VerifyInvariants(
		&w.ExecutionTrace, &w.CapabilityManifest, &w.CostLedger, &w.PolicyIR, w.Invariants)
	if err != nil {
		return WitnessResult{
			ProofID:        w.ProofID,
			Success:        false,
			InvariantCount: len(w.Invariants),
			Error:          err.Error(),
		}
	}

	if reverified.ProofID != w.ProofID {
		return WitnessResult{
			ProofID:             w.ProofID,
			Success:             false,
			InvariantCount:      len(w.Invariants),
			CounterExampleCount: len(reverified.CounterExamples),
			Error:               fmt.Sprintf("Proof ID mismatch: expected '%s', got '%s'", w.ProofID, reverified.ProofID),
		}
	}

	return WitnessResult{
		ProofID:             w.ProofID,
		Success:             len(reverified.CounterExamples) == 0,
		InvariantCount:      len(w.Invariants),
		CounterExampleCount: len(reverified.CounterExamples),
	}
}

// computeBundleID mirrors the engine's bundle id derivation over the
// bundle's actual metadata. A nil metadata map hashes as an empty object,
// matching freshly generated bundles.
func computeBundleID(bundle *artifact.ProofBundle) string {
	proofIDs := make([]string, len(bundle.Witnesses))
	for i := range bundle.Witnesses {
		proofIDs[i] = bundle.Witnesses[i].ProofID
	}
	metadata := bundle.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return canonicalize.Hash(map[string]any{
		"witnesses": proofIDs,
		"metadata":  metadata,
	})
}

// VerifyBundleJSON exposes VerifyBundle as a loose map for callers that
// consume results dynamically. It never fails: a serialization problem
// degrades to a minimal failure-shaped payload.
func (v *Verifier) VerifyBundleJSON(bundle *artifact.ProofBundle) map[string]any {
	result := v.VerifyBundle(bundle)

	raw, err := json.Marshal(result)
	if err == nil {
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	return map[string]any{
		"bundle_id": bundle.ID,
		"success":   false,
		"error":     "Failed to serialize verification result",
	}
}
