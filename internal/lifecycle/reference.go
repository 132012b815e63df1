package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"urdf/internal/utils"
)

const referenceSuffixLength = 6

// NormalizeReference trims and upper-cases a reference number for lookup.
func NormalizeReference(ref string) (string, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return "", newValidationError("reference", "Enter your application reference number.")
	}
	return ref, nil
}

// NewReferenceNumber builds a PREFIX-YEAR-XXXXXX reference. Uniqueness is
// enforced by the record store, not here.
func NewReferenceNumber(prefix string, at time.Time) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	return fmt.Sprintf("%s-%d-%s", prefix, at.Year(), utils.NumericID(referenceSuffixLength))
}
