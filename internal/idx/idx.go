// Package idx issues and validates sync identifiers: canonical lower-case,
// hyphenated UUID v4 strings. Identifiers are assigned exactly once per
// document and never change afterwards.
package idx

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mkarpins/docsync/internal/common"
)

// Generate returns a new cryptographically random identifier in canonical
// form. It needs no network or disk access.
func Generate() string {
	return uuid.NewString()
}

// Validate reports whether candidate is a canonical lower-case UUID v4.
func Validate(candidate string) bool {
	if len(candidate) != 36 || candidate != strings.ToLower(candidate) {
		return false
	}
	u, err := uuid.Parse(candidate)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

// Normalize lower-cases candidate and validates it, returning the canonical
// identifier or common.ErrInvalidFormat.
func Normalize(candidate string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(candidate))
	if !Validate(s) {
		return "", common.ErrInvalidFormat
	}
	return s, nil
}
