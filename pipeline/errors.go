package pipeline

import (
	"errors"
	"fmt"
)

// Kind discriminates the pipeline's structured error taxonomy (spec §7).
type Kind uint8

const (
	KindMalformedMetadata Kind = iota
	KindInvariantViolation
	KindReflectionNameParse
	KindTransformFailure
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindMalformedMetadata:
		return "MalformedMetadata"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindReflectionNameParse:
		return "ReflectionNameParse"
	case KindTransformFailure:
		return "TransformFailure"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error wraps a failure encountered while decompiling one method, tagged
// with its Kind and, for TransformFailure, the offending pass name. It
// carries no instruction or block location.
type Error struct {
	Kind   Kind
	Method string
	Pass   string // set for KindTransformFailure
	Err    error
}

func (e *Error) Error() string {
	if e.Pass != "" {
		return fmt.Sprintf("pipeline: %s in method %s (pass %s): %v", e.Kind, e.Method, e.Pass, e.Err)
	}
	return fmt.Sprintf("pipeline: %s in method %s: %v", e.Kind, e.Method, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err (or something it wraps) is a *Error of the
// given Kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
