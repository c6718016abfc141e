package ingest

import "fmt"

// FormatError indicates the file could not be classified into a supported
// layout. It is the only batch-fatal condition: nothing is processed.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "unrecognized file format: " + e.Reason
}

// ValidationKind distinguishes the ways a raw grade value can be invalid.
type ValidationKind string

const (
	NotNumeric ValidationKind = "NOT_NUMERIC"
	OutOfRange ValidationKind = "OUT_OF_RANGE"
)

// ValidationError reports an invalid raw grade value. For OutOfRange the
// offending scale bounds are carried so the failure reason names them.
type ValidationError struct {
	Kind ValidationKind
	Min  float64
	Max  float64
}

func (e *ValidationError) Error() string {
	if e.Kind == OutOfRange {
		return fmt.Sprintf("grade out of range (%g-%g)", e.Min, e.Max)
	}
	return "grade is not a number"
}

// LockError reports that an existing grade record may not be mutated. The two
// reasons are mutually exclusive and surfaced distinctly so the caller knows
// whether to request unsubmission or accept the lock.
type LockError struct {
	State LockState
}

func (e *LockError) Error() string {
	if e.State == StateExpired {
		return "edit window expired"
	}
	return "locked: submitted for validation"
}
