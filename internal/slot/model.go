package slot

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusBooked    Status = "BOOKED"
	StatusBlocked   Status = "BLOCKED"
)

type ConsultationType string

const (
	TypeInPerson ConsultationType = "IN_PERSON"
	TypeVideo    ConsultationType = "VIDEO"
	TypeAudio    ConsultationType = "AUDIO"
	TypeChat     ConsultationType = "CHAT"
)

var consultationDisplayNames = map[ConsultationType]string{
	TypeInPerson: "In-Person Visit",
	TypeVideo:    "Video Consultation",
	TypeAudio:    "Audio Consultation",
	TypeChat:     "Chat Consultation",
}

func (t ConsultationType) DisplayName() string {
	return consultationDisplayNames[t]
}

func (t ConsultationType) Valid() bool {
	_, ok := consultationDisplayNames[t]
	return ok
}

func ParseConsultationType(s string) (ConsultationType, error) {
	t := ConsultationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown consultation type %q", s)
	}
	return t, nil
}

// Slot is one concrete bookable unit of a doctor's availability.
// Its conceptual identity is (doctor, date, start time, consultation type);
// the surrogate ID exists for linking and conditional writes.
//
// StartTime and EndTime are wall-clock times in "HH:MM" form; Date carries
// only the calendar date (midnight UTC).
type Slot struct {
	ID               uuid.UUID
	DoctorID         uuid.UUID
	ClinicID         *uuid.UUID
	Date             time.Time
	StartTime        string
	EndTime          string
	ConsultationType ConsultationType
	DurationMinutes  int
	Status           Status
	AppointmentID    *uuid.UUID
	CreatedAt        time.Time
}

var (
	ErrNotFound = errors.New("slot not found")
	// ErrConflict means a conditional transition found the slot in a
	// different status than expected: some other writer got there first.
	ErrConflict = errors.New("slot status conflict")
)

// ScheduledAt combines the slot's date and start time into an instant (UTC).
func (s *Slot) ScheduledAt() time.Time {
	t, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return s.Date
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC)
}
