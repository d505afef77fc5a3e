package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/events"
	"github.com/healthbridge/appointment-engine/internal/pricing"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

var (
	ErrSlotUnavailable    = errors.New("slot is no longer available")
	ErrPastSlot           = errors.New("cannot book a past slot")
	ErrNotAuthorized      = errors.New("not authorized for this appointment")
	ErrInvalidState       = errors.New("operation not valid in current appointment status")
	ErrReservationExpired = errors.New("reservation expired")
)

// AvailabilityCache drops cached availability listings for a doctor after
// a slot changes status.
type AvailabilityCache interface {
	Invalidate(ctx context.Context, doctorID uuid.UUID) error
}

// Service is the reservation coordinator. Every state transition is built
// from two conditional writes, one on the appointment row and one on the
// slot row, with the second compensated if the first cannot be followed
// through. No locks, in-process or distributed: the conditional write is
// the only concurrency control, which keeps the coordinator safe across
// replicas.
type Service struct {
	repo      Repository
	slots     slot.Repository
	fees      pricing.FeeSchedule
	publisher events.Publisher
	cache     AvailabilityCache // optional
	log       *zap.Logger
	hold      time.Duration
	now       func() time.Time
}

func NewService(repo Repository, slots slot.Repository, fees pricing.FeeSchedule, publisher events.Publisher, cache AvailabilityCache, log *zap.Logger, hold time.Duration) *Service {
	return &Service{
		repo:      repo,
		slots:     slots,
		fees:      fees,
		publisher: publisher,
		cache:     cache,
		log:       log,
		hold:      hold,
		now:       time.Now,
	}
}

// ReserveInput carries a patient's booking attempt.
type ReserveInput struct {
	DoctorID         uuid.UUID
	SlotID           uuid.UUID
	ConsultationType slot.ConsultationType
	ClinicID         *uuid.UUID
	Notes            string
}

// PaymentConfirmation is the payment gateway's result relayed by the
// client after checkout.
type PaymentConfirmation struct {
	PaymentID uuid.UUID
	Status    string
}

// Reserve places a time-boxed hold on an AVAILABLE slot. The slot-side
// compare-and-set (AVAILABLE -> RESERVED) decides races: of any number of
// concurrent attempts on one slot, exactly one wins; the rest get
// ErrSlotUnavailable.
func (s *Service) Reserve(ctx context.Context, patientID uuid.UUID, in ReserveInput) (*Appointment, error) {
	sl, err := s.slots.GetByID(ctx, in.SlotID)
	if err != nil {
		return nil, err
	}

	if sl.DoctorID != in.DoctorID {
		return nil, fmt.Errorf("%w: slot belongs to a different doctor", ErrSlotUnavailable)
	}
	if sl.Status != slot.StatusAvailable {
		return nil, ErrSlotUnavailable
	}
	if sl.Date.Before(dateOnly(s.now())) {
		return nil, ErrPastSlot
	}

	fee, err := s.fees.GetFee(ctx, in.DoctorID, sl.ConsultationType)
	if err != nil {
		return nil, fmt.Errorf("fee lookup: %w", err)
	}

	now := s.now()
	reservedUntil := now.Add(s.hold)
	apptID := uuid.New()

	// Slot first: winning this conditional write is what reserves the slot.
	if err := s.slots.Transition(ctx, sl.ID, slot.StatusAvailable, slot.StatusReserved, &apptID); err != nil {
		if errors.Is(err, slot.ErrConflict) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	appt := &Appointment{
		ID:               apptID,
		PatientID:        patientID,
		DoctorID:         sl.DoctorID,
		ClinicID:         sl.ClinicID,
		SlotID:           sl.ID,
		ScheduledAt:      sl.ScheduledAt(),
		DurationMinutes:  sl.DurationMinutes,
		ConsultationType: sl.ConsultationType,
		Status:           StatusPendingPayment,
		ConsultationFee:  fee.ConsultationFee,
		PlatformFee:      fee.PlatformFee,
		DiscountAmount:   decimal.Zero,
		TotalAmount:      fee.Total(),
		Currency:         fee.Currency,
		ReservedUntil:    &reservedUntil,
	}
	if in.Notes != "" {
		notes := in.Notes
		appt.BookingNotes = &notes
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		// The slot was taken but the appointment never materialized; put
		// the slot back so the hold does not leak.
		s.compensateSlot(ctx, sl.ID, slot.StatusReserved, slot.StatusAvailable, nil)
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.appendHistory(ctx, appt.ID, nil, StatusPendingPayment, &patientID, "Slot reserved")
	s.invalidateAvailability(ctx, appt.DoctorID)
	s.publish(ctx, appt, events.TypeReserved)

	return appt, nil
}

// Confirm moves a held reservation to CONFIRMED once payment succeeded.
// The appointment-side compare-and-set is the tie-break against a racing
// expiry sweep: whichever transition commits first wins, the loser fails
// cleanly.
func (s *Service) Confirm(ctx context.Context, patientID, appointmentID uuid.UUID, payment PaymentConfirmation) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appt.PatientID != patientID {
		return nil, ErrNotAuthorized
	}
	if appt.Status != StatusPendingPayment {
		if appt.Status == StatusCancelledSystem {
			return nil, ErrReservationExpired
		}
		return nil, ErrInvalidState
	}
	if appt.ReservedUntil != nil && appt.ReservedUntil.Before(s.now()) {
		return nil, ErrReservationExpired
	}

	paymentID := payment.PaymentID
	paymentStatus := payment.Status
	prevHold := appt.ReservedUntil

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPendingPayment, StatusUpdate{
		To:                 StatusConfirmed,
		PaymentID:          &paymentID,
		PaymentStatus:      &paymentStatus,
		ClearReservedUntil: true,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, s.confirmRaceOutcome(ctx, appt.ID)
		}
		return nil, err
	}

	if err := s.slots.Transition(ctx, updated.SlotID, slot.StatusReserved, slot.StatusBooked, &updated.ID); err != nil {
		// Undo the confirmation so slot and appointment stay consistent;
		// the hold is restored as issued.
		s.compensateAppointment(ctx, updated.ID, StatusConfirmed, StatusUpdate{
			To:               StatusPendingPayment,
			SetReservedUntil: prevHold,
		})
		return nil, fmt.Errorf("book slot %s: %w", updated.SlotID, err)
	}

	s.appendHistory(ctx, updated.ID, statusPtr(StatusPendingPayment), StatusConfirmed, &patientID, "Payment confirmed")
	s.publish(ctx, updated, events.TypeConfirmed)

	return updated, nil
}

// confirmRaceOutcome classifies a lost confirm race by the status the
// winner left behind.
func (s *Service) confirmRaceOutcome(ctx context.Context, appointmentID uuid.UUID) error {
	current, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return ErrInvalidState
	}
	if current.Status == StatusCancelledSystem {
		return ErrReservationExpired
	}
	return ErrInvalidState
}

// Cancel releases an appointment on behalf of its patient or doctor. The
// slot returns to AVAILABLE.
func (s *Service) Cancel(ctx context.Context, userID, appointmentID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appt.PatientID != userID && appt.DoctorID != userID {
		return nil, ErrNotAuthorized
	}
	if !appt.Status.Cancellable() {
		return nil, ErrInvalidState
	}

	cancelStatus := StatusCancelledByDoctor
	if appt.PatientID == userID {
		cancelStatus = StatusCancelledByPatient
	}

	prev := appt.Status
	now := s.now()
	cancelReason := reason

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, prev, StatusUpdate{
		To:                 cancelStatus,
		CancelledAt:        &now,
		CancelledBy:        &userID,
		CancellationReason: &cancelReason,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	if err := s.releaseSlot(ctx, updated, prev); err != nil {
		s.compensateAppointment(ctx, updated.ID, cancelStatus, StatusUpdate{To: prev})
		return nil, err
	}

	s.appendHistory(ctx, updated.ID, &prev, cancelStatus, &userID, reason)
	s.invalidateAvailability(ctx, updated.DoctorID)
	s.publish(ctx, updated, events.TypeCancelled)

	return updated, nil
}

// Expire resolves one lapsed reservation. Only the reconciler calls it.
// Safe under duplicate invocation across replicas: the conditional write
// lets exactly one caller through, the rest get ErrInvalidState.
func (s *Service) Expire(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appt.Status != StatusPendingPayment {
		return nil, ErrInvalidState
	}
	if appt.ReservedUntil == nil || appt.ReservedUntil.After(s.now()) {
		return nil, fmt.Errorf("%w: reservation hold has not lapsed", ErrInvalidState)
	}

	now := s.now()
	reason := "Reservation expired - payment not completed"
	prevHold := appt.ReservedUntil

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPendingPayment, StatusUpdate{
		To:                 StatusCancelledSystem,
		CancelledAt:        &now,
		CancellationReason: &reason,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	if err := s.slots.Transition(ctx, updated.SlotID, slot.StatusReserved, slot.StatusAvailable, nil); err != nil {
		// Put the appointment back so the next sweep retries the release.
		s.compensateAppointment(ctx, updated.ID, StatusCancelledSystem, StatusUpdate{
			To:               StatusPendingPayment,
			SetReservedUntil: prevHold,
		})
		return nil, fmt.Errorf("release slot %s: %w", updated.SlotID, err)
	}

	s.appendHistory(ctx, updated.ID, statusPtr(StatusPendingPayment), StatusCancelledSystem, nil, reason)
	s.invalidateAvailability(ctx, updated.DoctorID)
	s.publish(ctx, updated, events.TypeExpired)

	return updated, nil
}

const expiryBatchSize = 100

// ExpireLapsed is one sweep: it resolves every reservation whose hold has
// passed. Per-item failures are logged and skipped; the sweep never
// aborts. Returns how many reservations were expired.
func (s *Service) ExpireLapsed(ctx context.Context) (int, error) {
	candidates, err := s.repo.FindExpiredReservations(ctx, s.now(), expiryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("find lapsed reservations: %w", err)
	}

	expired := 0
	for _, appt := range candidates {
		_, err := s.Expire(ctx, appt.ID)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrInvalidState), errors.Is(err, ErrNotFound):
			// Another sweep or a confirm got there first.
			s.log.Debug("reservation already resolved",
				zap.String("appointment_id", appt.ID.String()))
		default:
			s.log.Warn("failed to expire reservation",
				zap.String("appointment_id", appt.ID.String()), zap.Error(err))
		}
	}

	return expired, nil
}

func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, appointmentID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, status *Status, fromDate *time.Time, page, size int) ([]Appointment, error) {
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	if page < 0 {
		page = 0
	}

	return s.repo.ListByPatient(ctx, PatientQuery{
		PatientID: patientID,
		Status:    status,
		FromDate:  fromDate,
		Limit:     size,
		Offset:    page * size,
	})
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time, status *Status) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, DoctorQuery{
		DoctorID: doctorID,
		Date:     date,
		Status:   status,
	})
}

// releaseSlot returns an appointment's slot to AVAILABLE. The expected
// slot status follows from the appointment status being left: a pending
// hold keeps the slot RESERVED, anything confirmed onward keeps it BOOKED.
func (s *Service) releaseSlot(ctx context.Context, appt *Appointment, prev Status) error {
	from := slot.StatusBooked
	if prev == StatusPendingPayment {
		from = slot.StatusReserved
	}

	if err := s.slots.Transition(ctx, appt.SlotID, from, slot.StatusAvailable, nil); err != nil {
		return fmt.Errorf("release slot %s: %w", appt.SlotID, err)
	}
	return nil
}

func (s *Service) compensateSlot(ctx context.Context, slotID uuid.UUID, from, to slot.Status, appointmentID *uuid.UUID) {
	if err := s.slots.Transition(ctx, slotID, from, to, appointmentID); err != nil {
		s.log.Error("slot compensation failed",
			zap.String("slot_id", slotID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
	}
}

func (s *Service) compensateAppointment(ctx context.Context, id uuid.UUID, from Status, upd StatusUpdate) {
	if _, err := s.repo.UpdateStatus(ctx, id, from, upd); err != nil {
		s.log.Error("appointment compensation failed",
			zap.String("appointment_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(upd.To)),
			zap.Error(err))
	}
}

// appendHistory records the audit row for a committed transition. The
// transition itself is already durable; a history failure is logged, not
// propagated.
func (s *Service) appendHistory(ctx context.Context, appointmentID uuid.UUID, from *Status, to Status, changedBy *uuid.UUID, reason string) {
	h := &StatusHistory{
		AppointmentID: appointmentID,
		FromStatus:    from,
		ToStatus:      to,
		ChangedBy:     changedBy,
		Reason:        reason,
	}
	if err := s.repo.AppendHistory(ctx, h); err != nil {
		s.log.Error("failed to append status history",
			zap.String("appointment_id", appointmentID.String()),
			zap.String("to_status", string(to)),
			zap.Error(err))
	}
}

func (s *Service) invalidateAvailability(ctx context.Context, doctorID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, doctorID); err != nil {
		s.log.Warn("slot cache invalidation failed",
			zap.String("doctor_id", doctorID.String()), zap.Error(err))
	}
}

// publish sends the outbound event after the transition committed;
// delivery failure never rolls the transition back.
func (s *Service) publish(ctx context.Context, appt *Appointment, eventType string) {
	ev := events.AppointmentEvent{
		EventType:        eventType,
		AppointmentID:    appt.ID,
		PatientID:        appt.PatientID,
		DoctorID:         appt.DoctorID,
		ScheduledAt:      appt.ScheduledAt,
		ConsultationType: string(appt.ConsultationType),
		Status:           string(appt.Status),
		TotalAmount:      appt.TotalAmount,
		Currency:         appt.Currency,
		Timestamp:        s.now(),
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Error("failed to publish appointment event",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err))
	}
}

func statusPtr(s Status) *Status { return &s }

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
