package ingest

import "time"

// LockState is the derived mutability state of a grade record. It is never
// persisted: the state is always a pure function of created_at,
// is_submitted_for_validation, and the evaluation time, which keeps the
// 5-day rule free of clock-skew and migration concerns and unit-testable
// without wall-clock access.
type LockState string

const (
	// StateEditable: mutable by the owning staff member. A newly created
	// record is editable immediately.
	StateEditable LockState = "EDITABLE"
	// StateLocked: submitted for validation, immutable to staff until
	// unsubmitted.
	StateLocked LockState = "LOCKED"
	// StateExpired: the edit window elapsed without submission. Immutable to
	// staff, and unlike Locked there is no staff action that reopens it.
	StateExpired LockState = "EXPIRED"
)

// DefaultEditWindow is how long a record stays editable after creation
// absent submission.
const DefaultEditWindow = 5 * 24 * time.Hour

// Evaluate derives the lock state of a record from its creation time and
// submission flag at the given instant. Locked takes precedence: a submitted
// record is Locked regardless of age, so Locked and Expired are mutually
// exclusive.
func Evaluate(createdAt time.Time, submitted bool, now time.Time, window time.Duration) LockState {
	if submitted {
		return StateLocked
	}
	if now.Sub(createdAt) > window {
		return StateExpired
	}
	return StateEditable
}

// Mutable reports whether a record in the given state may be overwritten or
// deleted by staff.
func Mutable(state LockState) bool {
	return state == StateEditable
}
