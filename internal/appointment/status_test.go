package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFlags(t *testing.T) {
	tests := []struct {
		status      Status
		active      bool
		cancellable bool
		terminal    bool
	}{
		{StatusPendingPayment, false, true, false},
		{StatusPaymentFailed, false, false, false},
		{StatusConfirmed, true, true, false},
		{StatusReminderSent, true, true, false},
		{StatusCheckedIn, true, true, false},
		{StatusInProgress, true, true, false},
		{StatusCompleted, false, false, true},
		{StatusCancelledByPatient, false, false, true},
		{StatusCancelledByDoctor, false, false, true},
		{StatusCancelledSystem, false, false, true},
		{StatusNoShow, false, false, true},
		{StatusRescheduled, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.active, tt.status.Active())
			assert.Equal(t, tt.cancellable, tt.status.Cancellable())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.NotEmpty(t, tt.status.DisplayName())
		})
	}
}

func TestTerminalNeverCancellable(t *testing.T) {
	for status := range statusTable {
		if status.Terminal() {
			assert.False(t, status.Cancellable(), "terminal status %s must not be cancellable", status)
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)

	_, err = ParseStatus("confirmed")
	assert.Error(t, err)

	_, err = ParseStatus("BOOKED")
	assert.Error(t, err)
}
