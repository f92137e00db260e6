// Package mapper defines the bidirectional transform between external-facing
// payloads and internal domain entities, one implementation per
// (payload, domain) pair.
//
// ToDomain must populate every field the domain entity requires, synthesizing
// identifiers and timestamps the payload does not supply; each implementation
// documents exactly which fields it synthesizes. ToDto is a pure projection
// of the fields the payload is allowed to expose. A round trip is therefore
// not identity: what holds is field-level fidelity, every field present in
// both schemas carries the same value after either transform.
package mapper

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Mapper transforms between an external payload shape P and a domain entity D.
type Mapper[P any, D any] interface {
	ToDomain(payload P) (D, error)
	ToDto(entity D) (P, error)
}

// IncompleteDomainError reports that ToDomain could not synthesize a value
// for a required domain field and the payload did not supply one.
type IncompleteDomainError struct {
	Field string
}

func (e *IncompleteDomainError) Error() string {
	return fmt.Sprintf("cannot populate required domain field %q", e.Field)
}

// ProjectionError reports that ToDto was asked to project a domain value the
// payload schema has no slot for and no default is defined.
type ProjectionError struct {
	Field string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("payload schema has no slot for domain field %q", e.Field)
}

// suffixAlphabet is the alphabet for synthesized ID suffixes. Lowercase
// letters and digits, 36 symbols, 3 characters: 46656 combinations per prefix
// per day. Collision-resistant enough for the volumes this layer sees;
// cryptographic strength is deliberately not a goal.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const suffixLength = 3

// NewID synthesizes an identifier in the documented format
// "<prefix>_<2-digit-year><2-digit-month><2-digit-day>_<3-char-random-suffix>",
// e.g. "cf_250830_k3x". External systems parse and sort by this format, so it
// must not change shape.
func NewID(prefix string, now time.Time) string {
	suffix := make([]byte, suffixLength)
	for i := range suffix {
		suffix[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, now.Format("060102"), suffix)
}
