package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, doctor_id, clinic_id, slot_id, scheduled_at,
	duration_minutes, consultation_type, status,
	consultation_fee, platform_fee, discount_amount, total_amount, currency,
	payment_id, payment_status, booking_notes,
	cancelled_at, cancelled_by, cancellation_reason,
	rescheduled_from_id, rescheduled_to_id, reschedule_count,
	is_followup, original_appointment_id,
	reserved_until, created_at, updated_at
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ClinicID,
		&a.SlotID,
		&a.ScheduledAt,
		&a.DurationMinutes,
		&a.ConsultationType,
		&a.Status,
		&a.ConsultationFee,
		&a.PlatformFee,
		&a.DiscountAmount,
		&a.TotalAmount,
		&a.Currency,
		&a.PaymentID,
		&a.PaymentStatus,
		&a.BookingNotes,
		&a.CancelledAt,
		&a.CancelledBy,
		&a.CancellationReason,
		&a.RescheduledFromID,
		&a.RescheduledToID,
		&a.RescheduleCount,
		&a.Followup,
		&a.OriginalAppointmentID,
		&a.ReservedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, patient_id, doctor_id, clinic_id, slot_id, scheduled_at,
			 duration_minutes, consultation_type, status,
			 consultation_fee, platform_fee, discount_amount, total_amount, currency,
			 payment_id, payment_status, booking_notes,
			 rescheduled_from_id, rescheduled_to_id, reschedule_count,
			 is_followup, original_appointment_id,
			 reserved_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, now(), now())
	`, appt.ID, appt.PatientID, appt.DoctorID, appt.ClinicID, appt.SlotID,
		appt.ScheduledAt, appt.DurationMinutes, appt.ConsultationType,
		appt.Status, appt.ConsultationFee, appt.PlatformFee,
		appt.DiscountAmount, appt.TotalAmount, appt.Currency,
		appt.PaymentID, appt.PaymentStatus, appt.BookingNotes,
		appt.RescheduledFromID, appt.RescheduledToID, appt.RescheduleCount,
		appt.Followup, appt.OriginalAppointmentID, appt.ReservedUntil)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from Status, upd StatusUpdate) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now(),
		    payment_id = COALESCE($3, payment_id),
		    payment_status = COALESCE($4, payment_status),
		    reserved_until = CASE
		        WHEN $5 THEN NULL
		        WHEN $6::timestamptz IS NOT NULL THEN $6::timestamptz
		        ELSE reserved_until
		    END,
		    cancelled_at = COALESCE($7, cancelled_at),
		    cancelled_by = COALESCE($8, cancelled_by),
		    cancellation_reason = COALESCE($9, cancellation_reason)
		WHERE id = $1
		  AND status = $10
		RETURNING `+appointmentColumns+`
	`, id, upd.To, upd.PaymentID, upd.PaymentStatus, upd.ClearReservedUntil,
		upd.SetReservedUntil, upd.CancelledAt, upd.CancelledBy,
		upd.CancellationReason, from)

	appt, err := scanAppointment(row)
	if err == nil {
		return appt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("transition appointment %s %s->%s: %w", id, from, upd.To, err)
	}

	// Zero rows: absent row vs lost race.
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)
	`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check appointment %s after failed transition: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}

func (r *PgRepository) ListByPatient(ctx context.Context, q PatientQuery) ([]Appointment, error) {
	sql := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
	`
	args := []any{q.PatientID}

	if q.Status != nil {
		args = append(args, *q.Status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.FromDate != nil {
		args = append(args, *q.FromDate)
		sql += fmt.Sprintf(" AND scheduled_at >= $%d", len(args))
	}

	args = append(args, q.Limit)
	sql += fmt.Sprintf(" ORDER BY scheduled_at DESC LIMIT $%d", len(args))
	args = append(args, q.Offset)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.list(ctx, sql, args...)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, q DoctorQuery) ([]Appointment, error) {
	sql := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
	`
	args := []any{q.DoctorID}

	if q.Status != nil {
		args = append(args, *q.Status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.Date != nil {
		args = append(args, *q.Date)
		sql += fmt.Sprintf(" AND scheduled_at::date = $%d::date", len(args))
	}

	sql += " ORDER BY scheduled_at ASC"

	return r.list(ctx, sql, args...)
}

func (r *PgRepository) FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'PENDING_PAYMENT'
		  AND reserved_until IS NOT NULL
		  AND reserved_until < $1
		ORDER BY reserved_until
		LIMIT $2
	`, now, limit)
}

func (r *PgRepository) AppendHistory(ctx context.Context, h *StatusHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_status_history
			(id, appointment_id, from_status, to_status, changed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, h.ID, h.AppointmentID, h.FromStatus, h.ToStatus, h.ChangedBy, h.Reason)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	return nil
}

func (r *PgRepository) list(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}
