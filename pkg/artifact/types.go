// Package artifact defines the governance snapshot value types and the
// proof evidence types built from them. Everything here is a value object:
// once constructed it is treated as immutable, and witnesses and bundles
// embed deep copies rather than references so they stay independently
// hashable and verifiable.
package artifact

import (
	"math"

	"github.com/Mindburn-Labs/fak/pkg/faults"
)

// MaxTraceSteps bounds execution trace length to prevent resource exhaustion.
const MaxTraceSteps = 100_000

// ExecutionTrace captures an ordered sequence of governance operations.
// Steps are opaque to this core.
type ExecutionTrace struct {
	ID       string         `json:"id"`
	Steps    []any          `json:"steps"`
	Metadata map[string]any `json:"metadata"`
}

// Validate checks the trace's structural invariants.
func (t *ExecutionTrace) Validate() error {
	if t.ID == "" {
		return &faults.Validation{Field: "id", Message: "ExecutionTrace must have a non-empty ID"}
	}
	if len(t.Steps) > MaxTraceSteps {
		return &faults.ResourceLimit{Resource: "trace_steps", Limit: MaxTraceSteps, Actual: len(t.Steps)}
	}
	return nil
}

// CapabilityManifest declares an agent's permissions and the authority
// relationships between principals: authority_graph maps a principal to the
// principals it may delegate to or act for.
type CapabilityManifest struct {
	ID             string              `json:"id"`
	AgentID        string              `json:"agent_id"`
	Capabilities   []string            `json:"capabilities"`
	AuthorityGraph map[string][]string `json:"authority_graph"`
	Metadata       map[string]any      `json:"metadata"`
}

// Validate checks the manifest's structural invariants.
func (m *CapabilityManifest) Validate() error {
	if m.ID == "" {
		return &faults.Validation{Field: "id", Message: "CapabilityManifest must have a non-empty ID"}
	}
	if m.AgentID == "" {
		return &faults.Validation{Field: "agent_id", Message: "CapabilityManifest must have a non-empty agent_id"}
	}
	return nil
}

// CostLedger tracks economic attribution for a run. Entries are opaque;
// only the total is checked here.
type CostLedger struct {
	ID        string         `json:"id"`
	Entries   []any          `json:"entries"`
	TotalCost float64        `json:"total_cost"`
	Metadata  map[string]any `json:"metadata"`
}

// Validate checks the ledger's structural invariants.
func (l *CostLedger) Validate() error {
	if l.ID == "" {
		return &faults.Validation{Field: "id", Message: "CostLedger must have a non-empty ID"}
	}
	if l.TotalCost < 0 {
		return &faults.Validation{Field: "total_cost", Message: "CostLedger total_cost cannot be negative"}
	}
	if math.IsNaN(l.TotalCost) || math.IsInf(l.TotalCost, 0) {
		return &faults.Validation{Field: "total_cost", Message: "CostLedger total_cost must be finite"}
	}
	return nil
}

// PolicyIR is the compiled intermediate representation of governance rules.
// The AST and enforcement bytes are opaque payload to this core.
type PolicyIR struct {
	ID                  string         `json:"id"`
	AST                 map[string]any `json:"ast"`
	CompiledEnforcement []byte         `json:"compiled_enforcement"`
	Metadata            map[string]any `json:"metadata"`
}

// Validate checks the policy's structural invariants.
func (p *PolicyIR) Validate() error {
	if p.ID == "" {
		return &faults.Validation{Field: "id", Message: "PolicyIR must have a non-empty ID"}
	}
	return nil
}
