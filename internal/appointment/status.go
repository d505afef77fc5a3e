package appointment

import "fmt"

type Status string

const (
	StatusPendingPayment     Status = "PENDING_PAYMENT"
	StatusPaymentFailed      Status = "PAYMENT_FAILED"
	StatusConfirmed          Status = "CONFIRMED"
	StatusReminderSent       Status = "REMINDER_SENT"
	StatusCheckedIn          Status = "CHECKED_IN"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelledByPatient Status = "CANCELLED_BY_PATIENT"
	StatusCancelledByDoctor  Status = "CANCELLED_BY_DOCTOR"
	StatusCancelledSystem    Status = "CANCELLED_SYSTEM"
	StatusNoShow             Status = "NO_SHOW"
	StatusRescheduled        Status = "RESCHEDULED"
)

// statusProps are the static per-status flags: whether the appointment
// counts toward the doctor's live schedule and whether a cancel operation
// is permitted from it.
type statusProps struct {
	display     string
	active      bool
	cancellable bool
}

var statusTable = map[Status]statusProps{
	StatusPendingPayment:     {"Pending Payment", false, true},
	StatusPaymentFailed:      {"Payment Failed", false, false},
	StatusConfirmed:          {"Confirmed", true, true},
	StatusReminderSent:       {"Reminder Sent", true, true},
	StatusCheckedIn:          {"Checked In", true, true},
	StatusInProgress:         {"In Progress", true, true},
	StatusCompleted:          {"Completed", false, false},
	StatusCancelledByPatient: {"Cancelled by Patient", false, false},
	StatusCancelledByDoctor:  {"Cancelled by Doctor", false, false},
	StatusCancelledSystem:    {"System Cancelled", false, false},
	StatusNoShow:             {"No Show", false, false},
	StatusRescheduled:        {"Rescheduled", false, false},
}

func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s Status) DisplayName() string {
	return statusTable[s].display
}

func (s Status) Active() bool {
	return statusTable[s].active
}

func (s Status) Cancellable() bool {
	return statusTable[s].cancellable
}

// Terminal statuses accept no further transitions, ever.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelledByPatient, StatusCancelledByDoctor,
		StatusCancelledSystem, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
	return st, nil
}
