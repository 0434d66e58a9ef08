package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"scheduled to completed", StatusScheduled, StatusCompleted, true},
		{"scheduled to cancelled", StatusScheduled, StatusCancelled, true},
		{"completed is terminal", StatusCompleted, StatusScheduled, false},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusCompleted, false},
		{"cancelled to scheduled", StatusCancelled, StatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Appointment{Status: tt.from}
			assert.Equal(t, tt.want, a.CanTransitionTo(tt.to))
		})
	}
}

func TestComplete(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}

	assert.NoError(t, a.Complete())
	assert.Equal(t, StatusCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)
	assert.True(t, a.IsTerminal())

	// Completing again is a transition violation.
	assert.ErrorIs(t, a.Complete(), ErrInvalidStatusTransition)
}

func TestCancel(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}

	assert.NoError(t, a.Cancel("patient request"))
	assert.Equal(t, StatusCancelled, a.Status)
	assert.NotNil(t, a.CancelledAt)
	assert.Equal(t, "patient request", a.CancellationReason)

	assert.ErrorIs(t, a.Cancel("again"), ErrInvalidStatusTransition)
}

func TestCancelCompleted(t *testing.T) {
	a := &Appointment{Status: StatusCompleted}
	assert.ErrorIs(t, a.Cancel("too late"), ErrInvalidStatusTransition)
}

func TestPainSeverityIsValid(t *testing.T) {
	for _, p := range []PainSeverity{PainNone, PainMild, PainModerate, PainSevere} {
		assert.True(t, p.IsValid())
	}
	assert.False(t, PainSeverity("agonizing").IsValid())
	assert.False(t, PainSeverity("").IsValid())
}
