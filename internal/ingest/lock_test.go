package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		submitted bool
		want      LockState
	}{
		{name: "fresh record is editable", createdAt: now, submitted: false, want: StateEditable},
		{name: "within window", createdAt: now.Add(-4 * 24 * time.Hour), submitted: false, want: StateEditable},
		{name: "exactly at window boundary", createdAt: now.Add(-DefaultEditWindow), submitted: false, want: StateEditable},
		{name: "five days and one hour", createdAt: now.Add(-DefaultEditWindow - time.Hour), submitted: false, want: StateExpired},
		{name: "submitted is locked", createdAt: now, submitted: true, want: StateLocked},
		{name: "submitted beats expiry", createdAt: now.Add(-30 * 24 * time.Hour), submitted: true, want: StateLocked},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.createdAt, tc.submitted, now, DefaultEditWindow)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMutable(t *testing.T) {
	assert.True(t, Mutable(StateEditable))
	assert.False(t, Mutable(StateLocked))
	assert.False(t, Mutable(StateExpired))
}

func TestSubmitUnsubmitRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-2 * 24 * time.Hour)

	assert.Equal(t, StateEditable, Evaluate(createdAt, false, now, DefaultEditWindow))
	// Submit locks the record regardless of age.
	assert.Equal(t, StateLocked, Evaluate(createdAt, true, now, DefaultEditWindow))
	// Unsubmit within the window restores full editability.
	assert.Equal(t, StateEditable, Evaluate(createdAt, false, now, DefaultEditWindow))
}
