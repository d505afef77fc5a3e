package slot

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

const slotColumns = `
	id, doctor_id, clinic_id, slot_date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	consultation_type, slot_duration_minutes, status, appointment_id, created_at
`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.ClinicID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.ConsultationType,
		&s.DurationMinutes,
		&s.Status,
		&s.AppointmentID,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM available_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) Transition(ctx context.Context, id uuid.UUID, from, to Status, appointmentID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE available_slots
		SET status = $2,
		    appointment_id = $3
		WHERE id = $1
		  AND status = $4
	`, id, to, appointmentID, from)
	if err != nil {
		return fmt.Errorf("transition slot %s %s->%s: %w", id, from, to, err)
	}

	if tag.RowsAffected() == 0 {
		// Zero rows means either the slot vanished or another writer won
		// the race; tell the two apart for the caller.
		var exists bool
		if err := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM available_slots WHERE id = $1)
		`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check slot %s after failed transition: %w", id, err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	return nil
}

func (r *PgRepository) ReplaceAvailable(ctx context.Context, doctorID uuid.UUID, from, to time.Time, candidates []Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin slot regeneration: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Only AVAILABLE rows may be swapped out; holds and bookings survive
	// regeneration untouched.
	_, err = tx.Exec(ctx, `
		DELETE FROM available_slots
		WHERE doctor_id = $1
		  AND slot_date >= $2
		  AND slot_date <= $3
		  AND status = 'AVAILABLE'
	`, doctorID, from, to)
	if err != nil {
		return fmt.Errorf("clear available slots: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range candidates {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		// The identity index absorbs candidates colliding with surviving
		// RESERVED/BOOKED rows.
		batch.Queue(`
			INSERT INTO available_slots
				(id, doctor_id, clinic_id, slot_date, start_time, end_time,
				 consultation_type, slot_duration_minutes, status, created_at)
			VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8, 'AVAILABLE', now())
			ON CONFLICT (doctor_id, slot_date, start_time, consultation_type) DO NOTHING
		`, id, c.DoctorID, c.ClinicID, c.Date, c.StartTime, c.EndTime,
			c.ConsultationType, c.DurationMinutes)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert regenerated slots: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit slot regeneration: %w", err)
	}

	return nil
}

func (r *PgRepository) ListAvailable(ctx context.Context, q AvailabilityQuery) ([]Slot, error) {
	sql := `
		SELECT ` + slotColumns + `
		FROM available_slots
		WHERE doctor_id = $1
		  AND slot_date >= $2
		  AND slot_date <= $3
		  AND status = 'AVAILABLE'
	`
	args := []any{q.DoctorID, q.StartDate, q.EndDate}

	if q.ConsultationType != "" {
		args = append(args, q.ConsultationType)
		sql += fmt.Sprintf(" AND consultation_type = $%d", len(args))
	}
	if q.ClinicID != nil {
		args = append(args, *q.ClinicID)
		sql += fmt.Sprintf(" AND clinic_id = $%d", len(args))
	}

	sql += " ORDER BY slot_date, start_time"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
