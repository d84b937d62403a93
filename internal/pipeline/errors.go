// Package pipeline defines the shared failure taxonomy for the resolution
// pipeline. Sentinel markers let callers classify failures without string
// matching: malformed input is skipped and counted, uniqueness conflicts are
// merged or flagged, transaction failures abort a run with no partial write.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput marks raw listings missing required fields.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUniquenessConflict marks inserts that violate a uniqueness invariant.
	ErrUniquenessConflict = errors.New("uniqueness conflict")
	// ErrAmbiguousMerge marks conflicting rows whose merge would cross
	// brand or category boundaries; such rows need manual review.
	ErrAmbiguousMerge = errors.New("ambiguous merge")
	// ErrTransaction marks failures during the atomic canonical write.
	ErrTransaction = errors.New("transaction failure")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransaction
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
