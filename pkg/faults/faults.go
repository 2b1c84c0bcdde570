// Package faults defines the closed error taxonomy shared by every FAK
// component. Each error is a struct carrying structured context so callers
// can match with errors.As instead of parsing messages.
package faults

import "fmt"

// Validation reports a field-level contract violation on an artifact,
// invariant spec, witness, or bundle.
type Validation struct {
	Field   string
	Message string
}

func (e *Validation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ArtifactNotFound reports a missing key in the artifact store.
type ArtifactNotFound struct {
	ArtifactID string
}

func (e *ArtifactNotFound) Error() string {
	return fmt.Sprintf("artifact '%s' not found", e.ArtifactID)
}

// IntegrityFailure reports a content-hash mismatch between a claimed id and
// the artifact it is supposed to address. Raised by persistence layers
// rejecting drifted artifacts; the in-memory store reports the same check as
// a boolean via ValidateIntegrity.
type IntegrityFailure struct {
	ArtifactID string
	Expected   string
	Actual     string
}

func (e *IntegrityFailure) Error() string {
	return fmt.Sprintf("integrity check failed for '%s': expected '%s', got '%s'",
		e.ArtifactID, e.Expected, e.Actual)
}

// ParseError reports a malformed invariant DSL input.
type ParseError struct {
	Source  string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in '%s': %s", e.Source, e.Message)
}

// VerificationFailure reports a failed invariant verification. Raised by
// checker implementations that abort with structured context; the engine
// records it as a check_error counterexample rather than letting it escape.
type VerificationFailure struct {
	Invariant string
	Reason    string
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("verification failed for '%s': %s", e.Invariant, e.Reason)
}

// ResourceLimit reports a count ceiling being exceeded.
type ResourceLimit struct {
	Resource string
	Limit    int
	Actual   int
}

func (e *ResourceLimit) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d > %d", e.Resource, e.Actual, e.Limit)
}

// Timeout reports a wall-clock budget being exhausted. Raised by callers
// enforcing a hard deadline around verification; the engine itself reports
// its cooperative timeout as a timeout counterexample, not an error.
type Timeout struct {
	Operation string
	LimitSecs float64
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("%s timed out after %gs", e.Operation, e.LimitSecs)
}

// Serialization reports a failure to encode or decode an artifact.
type Serialization struct {
	Message string
}

func (e *Serialization) Error() string {
	return fmt.Sprintf("serialization error: %s", e.Message)
}

// UnknownProofType reports an unrecognized proof type string.
type UnknownProofType struct {
	Value string
}

func (e *UnknownProofType) Error() string {
	return fmt.Sprintf("unknown proof type: '%s'", e.Value)
}

// BundleVerificationFailed reports a bundle that failed re-verification.
// Raised by batch layers promoting a failed BundleResult into an error; the
// Verifier itself encodes failure in the result, never the error path.
type BundleVerificationFailed struct {
	BundleID string
	Reason   string
}

func (e *BundleVerificationFailed) Error() string {
	return fmt.Sprintf("bundle '%s' verification failed: %s", e.BundleID, e.Reason)
}

// LockPoisoned reports shared state abandoned mid-mutation by a panicking
// writer. Later accesses fail with this instead of observing torn state.
type LockPoisoned struct {
	Resource string
}

func (e *LockPoisoned) Error() string {
	return fmt.Sprintf("lock poisoned for resource: %s", e.Resource)
}
