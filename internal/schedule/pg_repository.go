package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRuleRepository struct {
	pool *pgxpool.Pool
}

func NewPgRuleRepository(pool *pgxpool.Pool) *PgRuleRepository {
	return &PgRuleRepository{pool: pool}
}

const ruleColumns = `
	id, doctor_id, clinic_id, day_of_week,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	slot_duration_minutes, buffer_minutes, consultation_type,
	max_patients_per_slot, is_active, created_at, updated_at
`

func scanRule(row pgx.Row) (*WeeklyRule, error) {
	var r WeeklyRule

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.ClinicID,
		&r.DayOfWeek,
		&r.StartTime,
		&r.EndTime,
		&r.SlotDurationMinutes,
		&r.BufferMinutes,
		&r.ConsultationType,
		&r.MaxPatientsPerSlot,
		&r.Active,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (r *PgRuleRepository) Create(ctx context.Context, rule *WeeklyRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO weekly_availability
			(id, doctor_id, clinic_id, day_of_week, start_time, end_time,
			 slot_duration_minutes, buffer_minutes, consultation_type,
			 max_patients_per_slot, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8, $9, $10, $11, now(), now())
	`, rule.ID, rule.DoctorID, rule.ClinicID, rule.DayOfWeek, rule.StartTime,
		rule.EndTime, rule.SlotDurationMinutes, rule.BufferMinutes,
		rule.ConsultationType, rule.MaxPatientsPerSlot, rule.Active)
	if err != nil {
		return fmt.Errorf("insert weekly rule: %w", err)
	}

	return nil
}

func (r *PgRuleRepository) Update(ctx context.Context, rule *WeeklyRule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE weekly_availability
		SET day_of_week = $2,
		    start_time = $3::time,
		    end_time = $4::time,
		    slot_duration_minutes = $5,
		    buffer_minutes = $6,
		    consultation_type = $7,
		    is_active = $8,
		    updated_at = now()
		WHERE id = $1
	`, rule.ID, rule.DayOfWeek, rule.StartTime, rule.EndTime,
		rule.SlotDurationMinutes, rule.BufferMinutes, rule.ConsultationType,
		rule.Active)
	if err != nil {
		return fmt.Errorf("update weekly rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}

	return nil
}

func (r *PgRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*WeeklyRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM weekly_availability
		WHERE id = $1
	`, id)
	return scanRule(row)
}

func (r *PgRuleRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, activeOnly bool) ([]WeeklyRule, error) {
	sql := `
		SELECT ` + ruleColumns + `
		FROM weekly_availability
		WHERE doctor_id = $1
	`
	if activeOnly {
		sql += " AND is_active"
	}
	sql += " ORDER BY day_of_week, start_time"

	rows, err := r.pool.Query(ctx, sql, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WeeklyRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	return result, rows.Err()
}

func (r *PgRuleRepository) DeactivateByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE weekly_availability
		SET is_active = false,
		    updated_at = now()
		WHERE doctor_id = $1
		  AND is_active
	`, doctorID)
	if err != nil {
		return fmt.Errorf("deactivate weekly rules: %w", err)
	}
	return nil
}

type PgBlockRepository struct {
	pool *pgxpool.Pool
}

func NewPgBlockRepository(pool *pgxpool.Pool) *PgBlockRepository {
	return &PgBlockRepository{pool: pool}
}

const blockColumns = `
	id, doctor_id, start_datetime, end_datetime, reason, block_type,
	is_recurring, recurrence_pattern, created_at
`

func scanBlock(row pgx.Row) (*BlockedInterval, error) {
	var b BlockedInterval

	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.StartAt,
		&b.EndAt,
		&b.Reason,
		&b.BlockType,
		&b.Recurring,
		&b.RecurrencePattern,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	return &b, nil
}

func (r *PgBlockRepository) Create(ctx context.Context, block *BlockedInterval) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_slots
			(id, doctor_id, start_datetime, end_datetime, reason, block_type,
			 is_recurring, recurrence_pattern, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	`, block.ID, block.DoctorID, block.StartAt, block.EndAt, block.Reason,
		block.BlockType, block.Recurring, block.RecurrencePattern)
	if err != nil {
		return fmt.Errorf("insert blocked interval: %w", err)
	}

	return nil
}

func (r *PgBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_slots
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete blocked interval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}

	return nil
}

func (r *PgBlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*BlockedInterval, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+blockColumns+`
		FROM blocked_slots
		WHERE id = $1
	`, id)
	return scanBlock(row)
}

func (r *PgBlockRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]BlockedInterval, error) {
	return r.list(ctx, `
		SELECT `+blockColumns+`
		FROM blocked_slots
		WHERE doctor_id = $1
		ORDER BY start_datetime
	`, doctorID)
}

func (r *PgBlockRepository) ListOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BlockedInterval, error) {
	return r.list(ctx, `
		SELECT `+blockColumns+`
		FROM blocked_slots
		WHERE doctor_id = $1
		  AND start_datetime < $3
		  AND end_datetime > $2
		ORDER BY start_datetime
	`, doctorID, from, to)
}

func (r *PgBlockRepository) list(ctx context.Context, sql string, args ...any) ([]BlockedInterval, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedInterval
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	return result, rows.Err()
}
