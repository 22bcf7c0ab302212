package ilast

import "fmt"

// InvariantViolation reports a broken structural invariant (parent/child
// consistency, detached-before-attach, use-count bookkeeping) detected by
// the mutation API. Per spec §7 these are programming errors in a transform
// pass, not malformed-input errors, and the pipeline driver treats them as
// fatal rather than retrying or skipping the method.
type InvariantViolation struct {
	Invariant string // short name, e.g. "single-parent" or "detached-before-attach"
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("ilast: invariant violation (%s): %s", e.Invariant, e.Detail)
}

func newInvariantViolation(invariant, format string, args ...interface{}) error {
	return &InvariantViolation{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}
