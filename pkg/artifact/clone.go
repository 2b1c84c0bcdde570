package artifact

import (
	"encoding/json"

	"github.com/Mindburn-Labs/fak/pkg/faults"
)

// DeepCopy returns a structurally independent copy of v via a JSON round
// trip. Witnesses and bundles embed copies made this way so they never
// alias caller-owned data.
func DeepCopy[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, &faults.Serialization{Message: err.Error()}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &faults.Serialization{Message: err.Error()}
	}
	return out, nil
}
