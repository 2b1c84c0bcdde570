package celcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/engine"
	"github.com/Mindburn-Labs/fak/pkg/engine/celcheck"
)

func snapshot() engine.Snapshot {
	return engine.Snapshot{
		Trace: &artifact.ExecutionTrace{
			ID:    "trace-1",
			Steps: []any{map[string]any{"op": "invoke"}},
		},
		Capabilities: &artifact.CapabilityManifest{
			ID:           "cap-1",
			AgentID:      "agent-1",
			Capabilities: []string{"search"},
		},
		CostLedger: &artifact.CostLedger{ID: "cost-1", TotalCost: 4.5},
		PolicyIR:   &artifact.PolicyIR{ID: "policy-1"},
	}
}

func spec(pre, post string) *artifact.InvariantSpec {
	s := &artifact.InvariantSpec{Name: "cel_invariant", InvariantType: artifact.EconomicInvariance}
	if pre != "" {
		s.Precondition = &pre
	}
	if post != "" {
		s.Postcondition = &post
	}
	return s
}

func TestPostconditionHolds(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	passed, err := check(snapshot(), spec("", "ledger.total_cost >= 0.0"))
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestPostconditionViolated(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	passed, err := check(snapshot(), spec("", "ledger.total_cost < 1.0"))
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestFalsePreconditionIsVacuouslyTrue(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	passed, err := check(snapshot(), spec("trace.id == 'other'", "ledger.total_cost < 0.0"))
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestPreconditionGatesPostcondition(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	passed, err := check(snapshot(),
		spec("trace.id == 'trace-1'", "capabilities.agent_id == 'agent-1'"))
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestNoPostconditionPasses(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	passed, err := check(snapshot(), spec("", ""))
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestCompileErrorSurfaces(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	_, err = check(snapshot(), spec("", "this is not CEL ((("))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postcondition")
}

func TestNonBooleanExpressionRejected(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)
	check := ev.Checker()

	_, err = check(snapshot(), spec("", "ledger.total_cost"))
	require.Error(t, err)
}

func TestRegisteredWithEngine(t *testing.T) {
	ev, err := celcheck.New()
	require.NoError(t, err)

	e := engine.New()
	e.RegisterChecker(artifact.EconomicInvariance, ev.Checker())

	snap := snapshot()
	post := "ledger.total_cost <= 5.0"
	invariants := []artifact.InvariantSpec{{
		Name:          "spend_cap",
		Postcondition: &post,
		InvariantType: artifact.EconomicInvariance,
	}}

	witness, err := e.VerifyInvariants(snap.Trace, snap.Capabilities, snap.CostLedger, snap.PolicyIR, invariants)
	require.NoError(t, err)
	assert.Empty(t, witness.CounterExamples)

	// Tighten the cap: the same engine now records a violation.
	tight := "ledger.total_cost <= 1.0"
	invariants[0].Postcondition = &tight
	witness, err = e.VerifyInvariants(snap.Trace, snap.Capabilities, snap.CostLedger, snap.PolicyIR, invariants)
	require.NoError(t, err)
	require.Len(t, witness.CounterExamples, 1)
	assert.Equal(t, artifact.ErrorTypeViolation, witness.CounterExamples[0].ErrorType)
}
