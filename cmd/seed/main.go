package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/db"
	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

// Local dev bootstrap: creates the schema if missing, then seeds doctors
// with weekly schedules, a sprinkling of leave blocks, and a generated
// slot horizon for each.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := createSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	log.Println("schema ready")

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, 25); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}

	log.Println("seed complete")
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS weekly_availability (
			id                    uuid PRIMARY KEY,
			doctor_id             uuid NOT NULL,
			clinic_id             uuid,
			day_of_week           int NOT NULL,
			start_time            time NOT NULL,
			end_time              time NOT NULL,
			slot_duration_minutes int NOT NULL,
			buffer_minutes        int NOT NULL DEFAULT 5,
			consultation_type     text NOT NULL,
			max_patients_per_slot int NOT NULL DEFAULT 1,
			is_active             boolean NOT NULL DEFAULT true,
			created_at            timestamptz NOT NULL DEFAULT now(),
			updated_at            timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_weekly_availability_doctor
			ON weekly_availability (doctor_id) WHERE is_active;

		CREATE TABLE IF NOT EXISTS blocked_slots (
			id                 uuid PRIMARY KEY,
			doctor_id          uuid NOT NULL,
			start_datetime     timestamptz NOT NULL,
			end_datetime       timestamptz NOT NULL,
			reason             text NOT NULL DEFAULT '',
			block_type         text NOT NULL DEFAULT 'LEAVE',
			is_recurring       boolean NOT NULL DEFAULT false,
			recurrence_pattern text,
			created_at         timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_blocked_slots_doctor_window
			ON blocked_slots (doctor_id, start_datetime, end_datetime);

		CREATE TABLE IF NOT EXISTS available_slots (
			id                    uuid PRIMARY KEY,
			doctor_id             uuid NOT NULL,
			clinic_id             uuid,
			slot_date             date NOT NULL,
			start_time            time NOT NULL,
			end_time              time NOT NULL,
			consultation_type     text NOT NULL,
			slot_duration_minutes int NOT NULL,
			status                text NOT NULL DEFAULT 'AVAILABLE',
			appointment_id        uuid,
			created_at            timestamptz NOT NULL DEFAULT now()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS uq_available_slots_identity
			ON available_slots (doctor_id, slot_date, start_time, consultation_type);

		CREATE INDEX IF NOT EXISTS idx_available_slots_listing
			ON available_slots (doctor_id, slot_date, status);

		CREATE TABLE IF NOT EXISTS appointments (
			id                      uuid PRIMARY KEY,
			patient_id              uuid NOT NULL,
			doctor_id               uuid NOT NULL,
			clinic_id               uuid,
			slot_id                 uuid NOT NULL,
			scheduled_at            timestamptz NOT NULL,
			duration_minutes        int NOT NULL,
			consultation_type       text NOT NULL,
			status                  text NOT NULL,
			consultation_fee        numeric(10,2) NOT NULL,
			platform_fee            numeric(10,2) NOT NULL,
			discount_amount         numeric(10,2) NOT NULL DEFAULT 0,
			total_amount            numeric(10,2) NOT NULL,
			currency                text NOT NULL DEFAULT 'INR',
			payment_id              uuid,
			payment_status          text,
			booking_notes           text,
			cancelled_at            timestamptz,
			cancelled_by            uuid,
			cancellation_reason     text,
			rescheduled_from_id     uuid,
			rescheduled_to_id       uuid,
			reschedule_count        int NOT NULL DEFAULT 0,
			is_followup             boolean NOT NULL DEFAULT false,
			original_appointment_id uuid,
			reserved_until          timestamptz,
			created_at              timestamptz NOT NULL DEFAULT now(),
			updated_at              timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_appointments_patient
			ON appointments (patient_id, scheduled_at);

		CREATE INDEX IF NOT EXISTS idx_appointments_doctor
			ON appointments (doctor_id, scheduled_at);

		CREATE INDEX IF NOT EXISTS idx_appointments_expiry
			ON appointments (reserved_until)
			WHERE status = 'PENDING_PAYMENT';

		CREATE TABLE IF NOT EXISTS appointment_status_history (
			id             uuid PRIMARY KEY,
			appointment_id uuid NOT NULL,
			from_status    text,
			to_status      text NOT NULL,
			changed_by     uuid,
			reason         text,
			created_at     timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_status_history_appointment
			ON appointment_status_history (appointment_id, created_at);
	`)
	return err
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors with schedules", count)

	ruleRepo := schedule.NewPgRuleRepository(pool)
	blockRepo := schedule.NewPgBlockRepository(pool)
	slotRepo := slot.NewPgRepository(pool)
	svc := schedule.NewService(ruleRepo, blockRepo, slotRepo, nil, zap.NewNop(), 30)

	types := []slot.ConsultationType{slot.TypeInPerson, slot.TypeVideo, slot.TypeAudio}
	windows := [][2]string{
		{"09:00", "13:00"},
		{"10:00", "14:00"},
		{"14:00", "18:00"},
		{"17:00", "21:00"},
	}
	durations := []int{15, 20, 30}

	for i := 0; i < count; i++ {
		doctorID := uuid.New()
		clinicID := uuid.New()

		workDays := gofakeit.Number(3, 6)
		inputs := make([]schedule.RuleInput, 0, workDays)
		for day := 1; day <= workDays; day++ {
			window := windows[gofakeit.Number(0, len(windows)-1)]
			ct := types[gofakeit.Number(0, len(types)-1)]

			in := schedule.RuleInput{
				DayOfWeek:           day,
				StartTime:           window[0],
				EndTime:             window[1],
				SlotDurationMinutes: durations[gofakeit.Number(0, len(durations)-1)],
				ConsultationType:    ct,
			}
			if ct == slot.TypeInPerson {
				in.ClinicID = &clinicID
			}
			inputs = append(inputs, in)
		}

		if _, err := svc.SetWeeklySchedule(ctx, doctorID, inputs); err != nil {
			return err
		}

		// Roughly a third of doctors get a short leave next week.
		if gofakeit.Number(0, 2) == 0 {
			leaveStart := time.Now().UTC().AddDate(0, 0, gofakeit.Number(5, 10)).Truncate(24 * time.Hour)
			if _, err := svc.Block(ctx, doctorID, schedule.BlockInput{
				StartAt:   leaveStart,
				EndAt:     leaveStart.AddDate(0, 0, gofakeit.Number(1, 3)),
				Reason:    "Personal leave",
				BlockType: "LEAVE",
			}); err != nil {
				return err
			}
		}

		log.Printf("seeded doctor %d/%d id=%s rules=%d", i+1, count, doctorID, len(inputs))
	}

	return nil
}
