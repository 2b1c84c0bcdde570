// Package dsl parses the textual invariant specification format.
//
// The grammar is line-oriented and order-insensitive among fields:
//
//	# comments run to end of line
//	invariant cost_bound
//	description: spend stays within budget
//	precondition: budget > 0
//	postcondition: spent <= budget
//	temporal_properties: [always cost_valid, eventually settled]
//	type: economic_invariance
//
// Only the `invariant <name>` declaration is required. Patterns are
// compiled once at package init and reused across calls.
package dsl

import (
	"regexp"
	"strings"

	"github.com/Mindburn-Labs/fak/pkg/artifact"
	"github.com/Mindburn-Labs/fak/pkg/faults"
)

var (
	invariantRe = regexp.MustCompile(`invariant\s+(\w+)`)
	typeRe      = regexp.MustCompile(`type:\s*(\w+)`)

	fieldRes = map[string]*regexp.Regexp{
		"description":         regexp.MustCompile(`description:\s*(.+)`),
		"precondition":        regexp.MustCompile(`precondition:\s*(.+)`),
		"postcondition":       regexp.MustCompile(`postcondition:\s*(.+)`),
		"temporal_properties": regexp.MustCompile(`temporal_properties:\s*(.+)`),
	}

	temporalOperators = []string{"always", "eventually", "until", "next"}
)

// TemporalProperty is a parsed temporal expression: a recognized operator
// and the expression it quantifies.
type TemporalProperty struct {
	Operator   string
	Expression string
}

// ParseInvariant parses DSL text into an InvariantSpec.
func ParseInvariant(text string) (*artifact.InvariantSpec, error) {
	clean := stripComments(text)

	m := invariantRe.FindStringSubmatch(clean)
	if m == nil {
		return nil, &faults.ParseError{Source: "invariant_spec", Message: "missing invariant name declaration"}
	}
	name := m[1]

	fields := extractFields(clean)

	invariantType := artifact.BehavioralSoundness
	if tm := typeRe.FindStringSubmatch(clean); tm != nil {
		if parsed, err := artifact.ParseProofType(tm[1]); err == nil {
			invariantType = parsed
		}
	}

	spec := &artifact.InvariantSpec{
		Name:               name,
		Description:        fields["description"],
		TemporalProperties: parseTemporalList(fields["temporal_properties"]),
		InvariantType:      invariantType,
	}
	if v, ok := fields["precondition"]; ok {
		spec.Precondition = &v
	}
	if v, ok := fields["postcondition"]; ok {
		spec.Postcondition = &v
	}
	return spec, nil
}

// ParseTemporalProperty splits a temporal expression into its leading
// operator and the remainder. The operator must be one of always,
// eventually, until, next, and the remainder must be non-empty.
func ParseTemporalProperty(text string) (*TemporalProperty, error) {
	trimmed := strings.TrimSpace(text)
	for _, op := range temporalOperators {
		rest, found := strings.CutPrefix(trimmed, op)
		if !found {
			continue
		}
		expr := strings.TrimSpace(rest)
		if expr == "" {
			return nil, &faults.ParseError{
				Source:  "temporal_property",
				Message: "operator '" + op + "' requires an expression",
			}
		}
		return &TemporalProperty{Operator: op, Expression: expr}, nil
	}
	return nil, &faults.ParseError{
		Source:  "temporal_property",
		Message: "unknown temporal operator in: " + trimmed,
	}
}

func stripComments(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if pos := strings.IndexByte(line, '#'); pos >= 0 {
			line = line[:pos]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func extractFields(clean string) map[string]string {
	fields := make(map[string]string)
	for name, re := range fieldRes {
		if m := re.FindStringSubmatch(clean); m != nil {
			fields[name] = strings.TrimSpace(m[1])
		}
	}
	return fields
}

// parseTemporalList splits a bracket-delimited list on commas. Anything not
// bracket-delimited yields an empty list; the parser does not attempt to
// recover bare or multi-line forms.
func parseTemporalList(value string) []string {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil
	}
	var props []string
	for _, part := range strings.Split(value[1:len(value)-1], ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			props = append(props, part)
		}
	}
	return props
}
