// Package store implements volatile content-addressed storage (CAS) for
// governance artifacts. The id of an artifact is the SHA-256 of its
// canonical JSON form, so the same logical value always lands under the
// same key and a stored id doubles as an integrity anchor.
//
// The store is process-lifetime only. Persistence, if needed, belongs to an
// external layer built on the same content-addressing contract.
package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Mindburn-Labs/fak/pkg/canonicalize"
	"github.com/Mindburn-Labs/fak/pkg/faults"
)

const lockResource = "artifacts"

// ArtifactStore is a thread-safe in-memory CAS. Values are deep-copied on
// the way in and out: callers never share mutable state with the store.
//
// Go locks do not poison, but the contract is preserved with a flag: a
// panic inside a guarded mutation marks the store poisoned and every later
// call fails with LockPoisoned instead of observing torn state. The panic
// itself still propagates to the caller that caused it.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]any
	poisoned  bool
}

// New creates an empty artifact store.
func New() *ArtifactStore {
	return &ArtifactStore{artifacts: make(map[string]any)}
}

// Store inserts a deep copy of value under its content hash and returns the
// hash. Storing the same logical value twice is idempotent.
func (s *ArtifactStore) Store(value any) (string, error) {
	copied, err := deepCopy(value)
	if err != nil {
		return "", &faults.Serialization{Message: fmt.Sprintf("store: %v", err)}
	}
	id := canonicalize.Hash(copied)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return "", &faults.LockPoisoned{Resource: lockResource}
	}
	defer s.markPoisonedOnPanic()
	s.artifacts[id] = copied
	return id, nil
}

// Retrieve returns a deep copy of the artifact stored under id, or
// ArtifactNotFound if the key is absent.
func (s *ArtifactStore) Retrieve(id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, &faults.LockPoisoned{Resource: lockResource}
	}
	value, ok := s.artifacts[id]
	if !ok {
		return nil, &faults.ArtifactNotFound{ArtifactID: id}
	}
	copied, err := deepCopy(value)
	if err != nil {
		return nil, &faults.Serialization{Message: fmt.Sprintf("retrieve: %v", err)}
	}
	return copied, nil
}

// Contains reports whether an artifact exists under id.
func (s *ArtifactStore) Contains(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return false, &faults.LockPoisoned{Resource: lockResource}
	}
	_, ok := s.artifacts[id]
	return ok, nil
}

// ValidateIntegrity recomputes the content hash of value and compares it to
// the expected id, detecting drift between a handed-in id and the artifact
// it claims to address.
func (s *ArtifactStore) ValidateIntegrity(id string, value any) bool {
	return canonicalize.Hash(value) == id
}

// Clear removes all stored artifacts.
func (s *ArtifactStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return &faults.LockPoisoned{Resource: lockResource}
	}
	defer s.markPoisonedOnPanic()
	s.artifacts = make(map[string]any)
	return nil
}

// Len returns the number of stored artifacts.
func (s *ArtifactStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return 0, &faults.LockPoisoned{Resource: lockResource}
	}
	return len(s.artifacts), nil
}

// Clone returns a store holding a deep copy of the current contents. The
// clone shares no mutable state with the original.
func (s *ArtifactStore) Clone() (*ArtifactStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, &faults.LockPoisoned{Resource: lockResource}
	}
	cloned := make(map[string]any, len(s.artifacts))
	for id, value := range s.artifacts {
		copied, err := deepCopy(value)
		if err != nil {
			return nil, &faults.Serialization{Message: fmt.Sprintf("clone: %v", err)}
		}
		cloned[id] = copied
	}
	return &ArtifactStore{artifacts: cloned}, nil
}

// markPoisonedOnPanic must run while the write lock is held.
func (s *ArtifactStore) markPoisonedOnPanic() {
	if r := recover(); r != nil {
		s.poisoned = true
		panic(r)
	}
}

// deepCopy reduces value to its generic JSON form. This both severs
// aliasing and normalizes the value to the shape the canonical hasher sees.
func deepCopy(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
