package artifact

import (
	"strings"

	"github.com/Mindburn-Labs/fak/pkg/faults"
)

// MaxBundleWitnesses bounds witnesses per bundle to prevent resource exhaustion.
const MaxBundleWitnesses = 100

// ProofType selects which checking function applies to an invariant.
type ProofType string

const (
	BehavioralSoundness    ProofType = "behavioral_soundness"
	AuthorityNonEscalation ProofType = "authority_non_escalation"
	EconomicInvariance     ProofType = "economic_invariance"
	SemanticPreservation   ProofType = "semantic_preservation"
)

// ParseProofType parses a proof type string, case-insensitively, accepting
// both the canonical snake_case form and the concatenated form.
func ParseProofType(s string) (ProofType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "behavioral_soundness", "behavioralsoundness":
		return BehavioralSoundness, nil
	case "authority_non_escalation", "authoritynonescalation":
		return AuthorityNonEscalation, nil
	case "economic_invariance", "economicinvariance":
		return EconomicInvariance, nil
	case "semantic_preservation", "semanticpreservation":
		return SemanticPreservation, nil
	default:
		return "", &faults.UnknownProofType{Value: s}
	}
}

// String returns the canonical snake_case form.
func (p ProofType) String() string { return string(p) }

// CounterExample error kinds.
const (
	ErrorTypeViolation  = "violation"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeCheckError = "check_error"
)

// InvariantSpec declares one invariant to verify. Precondition,
// postcondition, and temporal properties are stored as opaque expression
// strings; this core does not evaluate them (checkers may).
type InvariantSpec struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Precondition       *string   `json:"precondition"`
	Postcondition      *string   `json:"postcondition"`
	TemporalProperties []string  `json:"temporal_properties"`
	InvariantType      ProofType `json:"invariant_type"`
}

// Validate checks the spec's structural invariants.
func (s *InvariantSpec) Validate() error {
	if s.Name == "" {
		return &faults.Validation{Field: "name", Message: "InvariantSpec must have a non-empty name"}
	}
	return nil
}

// CounterExample records why an invariant failed, timed out, or errored.
// StepIndex is reserved for step-level localization; no current check
// populates it.
type CounterExample struct {
	InvariantName string         `json:"invariant_name"`
	ErrorType     string         `json:"error_type"`
	Details       map[string]any `json:"details"`
	StepIndex     *int           `json:"step_index"`
}

// ProofWitness is the evidence unit: the four input artifacts by value, the
// invariants evaluated against them, and the counterexamples found. Embedding
// copies keeps a witness re-verifiable without access to any store.
type ProofWitness struct {
	ProofID            string             `json:"proof_id"`
	ExecutionTrace     ExecutionTrace     `json:"execution_trace"`
	CapabilityManifest CapabilityManifest `json:"capability_manifest"`
	CostLedger         CostLedger         `json:"cost_ledger"`
	PolicyIR           PolicyIR           `json:"policy_ir"`
	Invariants         []InvariantSpec    `json:"invariants"`
	CounterExamples    []CounterExample   `json:"counterexamples"`
}

// Validate checks the witness and each embedded artifact.
func (w *ProofWitness) Validate() error {
	if w.ProofID == "" {
		return &faults.Validation{Field: "proof_id", Message: "ProofWitness must have a non-empty proof ID"}
	}
	if err := w.ExecutionTrace.Validate(); err != nil {
		return err
	}
	if err := w.CapabilityManifest.Validate(); err != nil {
		return err
	}
	if err := w.CostLedger.Validate(); err != nil {
		return err
	}
	return w.PolicyIR.Validate()
}

// ProofBundle is an ordered collection of witnesses under one
// content-derived identity.
type ProofBundle struct {
	ID        string         `json:"id"`
	Witnesses []ProofWitness `json:"witnesses"`
	Metadata  map[string]any `json:"metadata"`
}

// Validate checks the bundle, its witness ceiling, and every witness.
func (b *ProofBundle) Validate() error {
	if b.ID == "" {
		return &faults.Validation{Field: "id", Message: "ProofBundle must have a non-empty ID"}
	}
	if len(b.Witnesses) > MaxBundleWitnesses {
		return &faults.ResourceLimit{Resource: "bundle_witnesses", Limit: MaxBundleWitnesses, Actual: len(b.Witnesses)}
	}
	for i := range b.Witnesses {
		if err := b.Witnesses[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
