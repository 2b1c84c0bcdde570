package engine

import "github.com/Mindburn-Labs/fak/pkg/artifact"

// defaultCheckers returns the built-in structural checkers. These are
// deliberately shallow: they verify the artifact has the shape the
// invariant type speaks about, nothing more. Real behavioral, authority,
// economic, and semantic analysis plugs in through RegisterChecker with the
// same tri-state contract.
func defaultCheckers() map[artifact.ProofType]Checker {
	return map[artifact.ProofType]Checker{
		artifact.BehavioralSoundness:    checkBehavioralSoundness,
		artifact.AuthorityNonEscalation: checkAuthorityNonEscalation,
		artifact.EconomicInvariance:     checkEconomicInvariance,
		artifact.SemanticPreservation:   checkSemanticPreservation,
	}
}

// A trace must be non-empty when the invariant declares a precondition.
func checkBehavioralSoundness(snap Snapshot, inv *artifact.InvariantSpec) (bool, error) {
	return len(snap.Trace.Steps) > 0 || inv.Precondition == nil, nil
}

// The authority graph must be non-empty when the invariant declares a
// precondition.
func checkAuthorityNonEscalation(snap Snapshot, inv *artifact.InvariantSpec) (bool, error) {
	return len(snap.Capabilities.AuthorityGraph) > 0 || inv.Precondition == nil, nil
}

func checkEconomicInvariance(snap Snapshot, _ *artifact.InvariantSpec) (bool, error) {
	return snap.CostLedger.TotalCost >= 0, nil
}

func checkSemanticPreservation(snap Snapshot, _ *artifact.InvariantSpec) (bool, error) {
	return snap.PolicyIR.ID != "", nil
}
