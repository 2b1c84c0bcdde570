package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/engine"
	"github.com/Mindburn-Labs/fak/pkg/faults"
)

func fixtures() (*artifact.ExecutionTrace, *artifact.CapabilityManifest, *artifact.CostLedger, *artifact.PolicyIR) {
	trace := &artifact.ExecutionTrace{
		ID:    "trace-1",
		Steps: []any{map[string]any{"op": "invoke", "tool": "search"}},
	}
	capabilities := &artifact.CapabilityManifest{
		ID:             "cap-1",
		AgentID:        "agent-1",
		Capabilities:   []string{"search"},
		AuthorityGraph: map[string][]string{"agent-1": {"agent-2"}},
	}
	ledger := &artifact.CostLedger{
		ID:        "cost-1",
		Entries:   []any{map[string]any{"usd": 0.25}},
		TotalCost: 0.25,
	}
	policy := &artifact.PolicyIR{
		ID:  "policy-1",
		AST: map[string]any{"rule": "allow"},
	}
	return trace, capabilities, ledger, policy
}

func economicInvariant() artifact.InvariantSpec {
	return artifact.InvariantSpec{
		Name:          "cost_non_negative",
		Description:   "total cost must stay non-negative",
		InvariantType: artifact.EconomicInvariance,
	}
}

func TestVerifyEmptyInvariants(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	witness, err := engine.New().VerifyInvariants(trace, capabilities, ledger, policy, nil)
	require.NoError(t, err)

	assert.Len(t, witness.ProofID, 64)
	assert.Empty(t, witness.CounterExamples)
	assert.Equal(t, "trace-1", witness.ExecutionTrace.ID)
}

func TestVerifyEconomicInvariantPasses(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	witness, err := engine.New().VerifyInvariants(
		trace, capabilities, ledger, policy,
		[]artifact.InvariantSpec{economicInvariant()})
	require.NoError(t, err)

	assert.Empty(t, witness.CounterExamples)
	assert.Len(t, witness.Invariants, 1)
}

func TestVerifyViolationRecorded(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()
	trace.Steps = nil // behavioral check fails for specs with a precondition

	pre := "steps_present"
	inv := artifact.InvariantSpec{
		Name:          "trace_non_empty",
		Precondition:  &pre,
		InvariantType: artifact.BehavioralSoundness,
	}

	witness, err := engine.New().VerifyInvariants(
		trace, capabilities, ledger, policy, []artifact.InvariantSpec{inv})
	require.NoError(t, err)

	require.Len(t, witness.CounterExamples, 1)
	ce := witness.CounterExamples[0]
	assert.Equal(t, "trace_non_empty", ce.InvariantName)
	assert.Equal(t, artifact.ErrorTypeViolation, ce.ErrorType)
	assert.Equal(t, "behavioral_soundness", ce.Details["invariant_type"])
	assert.Nil(t, ce.StepIndex)
}

func TestVerifyCheckErrorDoesNotAbortBatch(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	e := engine.New()
	e.RegisterChecker(artifact.SemanticPreservation,
		func(engine.Snapshot, *artifact.InvariantSpec) (bool, error) {
			return false, errors.New("analysis backend unavailable")
		})

	invariants := []artifact.InvariantSpec{
		{Name: "semantic_ok", InvariantType: artifact.SemanticPreservation},
		economicInvariant(),
	}

	witness, err := e.VerifyInvariants(trace, capabilities, ledger, policy, invariants)
	require.NoError(t, err)

	// The erroring check is recorded and the batch continues.
	require.Len(t, witness.CounterExamples, 1)
	assert.Equal(t, artifact.ErrorTypeCheckError, witness.CounterExamples[0].ErrorType)
	assert.Equal(t, "analysis backend unavailable", witness.CounterExamples[0].Details["error"])
	assert.Len(t, witness.Invariants, 2)
}

func TestVerifyInvalidSpecBecomesCheckError(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	invariants := []artifact.InvariantSpec{{Name: "", InvariantType: artifact.EconomicInvariance}}

	witness, err := engine.New().VerifyInvariants(trace, capabilities, ledger, policy, invariants)
	require.NoError(t, err)

	require.Len(t, witness.CounterExamples, 1)
	assert.Equal(t, artifact.ErrorTypeCheckError, witness.CounterExamples[0].ErrorType)
}

func TestVerifyInvalidArtifactAborts(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()
	ledger.TotalCost = -1

	_, err := engine.New().VerifyInvariants(trace, capabilities, ledger, policy, nil)

	var v *faults.Validation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "total_cost", v.Field)
}

func TestVerifyInvariantCeiling(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	e := engine.WithConfig(engine.Config{MaxInvariants: 2, TimeoutSecs: 30})
	invariants := make([]artifact.InvariantSpec, 3)
	for i := range invariants {
		invariants[i] = economicInvariant()
	}

	_, err := e.VerifyInvariants(trace, capabilities, ledger, policy, invariants)

	var limit *faults.ResourceLimit
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, "invariants", limit.Resource)
	assert.Equal(t, 2, limit.Limit)
	assert.Equal(t, 3, limit.Actual)
}

func TestVerifyTimeoutRecordedAsCounterExample(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	// Zero budget: the checkpoint before the first evaluation already trips.
	e := engine.WithConfig(engine.Config{MaxInvariants: 1000, TimeoutSecs: 0})

	invariants := []artifact.InvariantSpec{economicInvariant(), economicInvariant()}
	witness, err := e.VerifyInvariants(trace, capabilities, ledger, policy, invariants)
	require.NoError(t, err)

	// One timeout counterexample, remaining invariants skipped.
	require.Len(t, witness.CounterExamples, 1)
	ce := witness.CounterExamples[0]
	assert.Equal(t, artifact.ErrorTypeTimeout, ce.ErrorType)
	assert.Equal(t, "Verification timed out", ce.Details["reason"])
	assert.Contains(t, ce.Details, "elapsed_secs")
	assert.Contains(t, ce.Details, "limit_secs")
}

func TestProofIDBindsInputsNotOutcome(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	pre := "steps_present"
	inv := artifact.InvariantSpec{
		Name:          "trace_non_empty",
		Precondition:  &pre,
		InvariantType: artifact.BehavioralSoundness,
	}

	e := engine.New()
	passing, err := e.VerifyInvariants(trace, capabilities, ledger, policy, []artifact.InvariantSpec{inv})
	require.NoError(t, err)
	require.Empty(t, passing.CounterExamples)

	trace.Steps = nil // same artifact ids, different outcome
	failing, err := e.VerifyInvariants(trace, capabilities, ledger, policy, []artifact.InvariantSpec{inv})
	require.NoError(t, err)
	require.NotEmpty(t, failing.CounterExamples)

	// The proof id is a request fingerprint: artifact ids + invariant names.
	assert.Equal(t, passing.ProofID, failing.ProofID)
}

func TestWitnessEmbedsCopies(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	witness, err := engine.New().VerifyInvariants(trace, capabilities, ledger, policy, nil)
	require.NoError(t, err)

	trace.Steps[0].(map[string]any)["op"] = "mutated"
	capabilities.AuthorityGraph["agent-1"][0] = "mutated"

	assert.Equal(t, "invoke", witness.ExecutionTrace.Steps[0].(map[string]any)["op"])
	assert.Equal(t, "agent-2", witness.CapabilityManifest.AuthorityGraph["agent-1"][0])
}

func TestGenerateBundle(t *testing.T) {
	trace, capabilities, ledger, policy := fixtures()

	e := engine.New()
	witness, err := e.VerifyInvariants(trace, capabilities, ledger, policy,
		[]artifact.InvariantSpec{economicInvariant()})
	require.NoError(t, err)

	bundle, err := e.GenerateBundle([]artifact.ProofWitness{*witness})
	require.NoError(t, err)

	assert.Len(t, bundle.ID, 64)
	assert.Len(t, bundle.Witnesses, 1)
	assert.NotNil(t, bundle.Metadata)
	assert.Empty(t, bundle.Metadata)

	// Bundle generation is deterministic over the same witnesses.
	again, err := e.GenerateBundle([]artifact.ProofWitness{*witness})
	require.NoError(t, err)
	assert.Equal(t, bundle.ID, again.ID)
}

func TestGenerateBundleRejectsEmpty(t *testing.T) {
	_, err := engine.New().GenerateBundle(nil)

	var v *faults.Validation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "witnesses", v.Field)
}

func TestGenerateBundleValidatesWitnesses(t *testing.T) {
	witness := artifact.ProofWitness{} // missing proof id and artifact ids

	_, err := engine.New().GenerateBundle([]artifact.ProofWitness{witness})

	var v *faults.Validation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "proof_id", v.Field)
}

func TestDefaultConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	assert.Equal(t, 1000, cfg.MaxInvariants)
	assert.Equal(t, 30.0, cfg.TimeoutSecs)
}
