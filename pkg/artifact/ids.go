package artifact

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID allocates a caller-side artifact identifier of the form
// "<kind>-<uuid>". These ids name artifacts at construction time and are
// distinct from the content hashes the store and engine compute; callers
// with upstream identifiers (e.g. from a trace collector) should use those
// instead.
func NewID(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}
