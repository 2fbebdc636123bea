package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcsil/DoseMate-backend/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

const scheduleColumns = `id, user_id, medication_id, frequency, days, time_of_day, as_needed,
	strength, quantity, food_instructions, start_date, end_date,
	preferred_time, adapted_from_time, adaptation_score, created_at`

func scanSchedule(row pgx.Row) (*internal.Schedule, error) {
	var sc internal.Schedule
	err := row.Scan(&sc.ID, &sc.UserID, &sc.MedicationID, &sc.Frequency, &sc.Days, &sc.TimeOfDay,
		&sc.AsNeeded, &sc.Strength, &sc.Quantity, &sc.FoodInstructions, &sc.StartDate, &sc.EndDate,
		&sc.PreferredTime, &sc.AdaptedFromTime, &sc.AdaptationScore, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// --- ScheduleRepository ---

func (p *PostgresStorage) ListSchedules(ctx context.Context, userID string) ([]internal.Schedule, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+scheduleColumns+` FROM medication_schedules WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		p.logger.Errorf("failed to query schedules: %v", err)
		return nil, err
	}
	defer rows.Close()

	var scheds []internal.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			p.logger.Errorf("failed to scan schedule: %v", err)
			return nil, err
		}
		scheds = append(scheds, *sc)
	}
	return scheds, rows.Err()
}

func (p *PostgresStorage) GetSchedule(ctx context.Context, scheduleID, userID string) (*internal.Schedule, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM medication_schedules WHERE id = $1 AND user_id = $2`, scheduleID, userID)
	sc, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("storage: schedule %s: %w", scheduleID, internal.ErrNotFound)
		}
		p.logger.Errorf("failed to fetch schedule: %v", err)
		return nil, err
	}
	return sc, nil
}

func (p *PostgresStorage) SaveSchedule(ctx context.Context, sched *internal.Schedule) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO medication_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			frequency = EXCLUDED.frequency,
			days = EXCLUDED.days,
			time_of_day = EXCLUDED.time_of_day,
			as_needed = EXCLUDED.as_needed,
			strength = EXCLUDED.strength,
			quantity = EXCLUDED.quantity,
			food_instructions = EXCLUDED.food_instructions,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			preferred_time = EXCLUDED.preferred_time,
			adapted_from_time = EXCLUDED.adapted_from_time,
			adaptation_score = EXCLUDED.adaptation_score`,
		sched.ID, sched.UserID, sched.MedicationID, sched.Frequency, sched.Days, sched.TimeOfDay,
		sched.AsNeeded, sched.Strength, sched.Quantity, sched.FoodInstructions, sched.StartDate,
		sched.EndDate, sched.PreferredTime, sched.AdaptedFromTime, sched.AdaptationScore, sched.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert schedule: %v", err)
		return err
	}
	return nil
}

const doseColumns = `id, schedule_id, user_id, scheduled_time, taken_time, status, snoozed, created_at`

func scanDose(row pgx.Row) (*internal.DoseInstance, error) {
	var d internal.DoseInstance
	err := row.Scan(&d.ID, &d.ScheduleID, &d.UserID, &d.ScheduledTime, &d.TakenTime, &d.Status, &d.Snoozed, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- DoseRepository ---

func (p *PostgresStorage) ListDoseInstances(ctx context.Context, userID string, from, to time.Time) ([]internal.DoseInstance, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+doseColumns+` FROM dose_logs
		WHERE user_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3
		ORDER BY scheduled_time`, userID, from, to)
	if err != nil {
		p.logger.Errorf("failed to query dose logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var doses []internal.DoseInstance
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			p.logger.Errorf("failed to scan dose log: %v", err)
			return nil, err
		}
		doses = append(doses, *d)
	}
	return doses, rows.Err()
}

func (p *PostgresStorage) ListRecentTaken(ctx context.Context, scheduleID string, limit int) ([]internal.DoseInstance, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+doseColumns+` FROM dose_logs
		WHERE schedule_id = $1 AND status = 'taken' AND taken_time IS NOT NULL
		ORDER BY scheduled_time DESC LIMIT $2`, scheduleID, limit)
	if err != nil {
		p.logger.Errorf("failed to query taken dose logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var doses []internal.DoseInstance
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			p.logger.Errorf("failed to scan dose log: %v", err)
			return nil, err
		}
		doses = append(doses, *d)
	}
	return doses, rows.Err()
}

func (p *PostgresStorage) GetDoseInstance(ctx context.Context, doseID, userID string) (*internal.DoseInstance, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+doseColumns+` FROM dose_logs WHERE id = $1 AND user_id = $2`, doseID, userID)
	d, err := scanDose(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("storage: dose instance %s: %w", doseID, internal.ErrNotFound)
		}
		p.logger.Errorf("failed to fetch dose log: %v", err)
		return nil, err
	}
	return d, nil
}

// FindOrCreateDoseInstance runs the window lookup and the insert in one
// transaction, serialized per schedule by an advisory lock. A row lock on the
// window SELECT is not enough: when the slot has no instance yet there is no
// row to lock, and two concurrent reconciliations would both insert.
func (p *PostgresStorage) FindOrCreateDoseInstance(ctx context.Context, inst *internal.DoseInstance, window time.Duration) (*internal.DoseInstance, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Errorf("failed to begin dose transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, inst.ScheduleID); err != nil {
		p.logger.Errorf("failed to take schedule lock: %v", err)
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+doseColumns+` FROM dose_logs
		WHERE schedule_id = $1 AND user_id = $2 AND scheduled_time >= $3 AND scheduled_time <= $4
		ORDER BY scheduled_time DESC LIMIT 1`,
		inst.ScheduleID, inst.UserID, inst.ScheduledTime.Add(-window), inst.ScheduledTime.Add(window))
	existing, err := scanDose(row)
	if err == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		p.logger.Errorf("failed to look up dose log window: %v", err)
		return nil, err
	}

	row = tx.QueryRow(ctx, `INSERT INTO dose_logs (`+doseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+doseColumns,
		inst.ID, inst.ScheduleID, inst.UserID, inst.ScheduledTime, inst.TakenTime, inst.Status, inst.Snoozed, inst.CreatedAt)
	created, err := scanDose(row)
	if err != nil {
		p.logger.Errorf("failed to insert dose log: %v", err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (p *PostgresStorage) UpdateDoseInstance(ctx context.Context, inst *internal.DoseInstance) error {
	tag, err := p.pool.Exec(ctx, `UPDATE dose_logs
		SET scheduled_time = $2, taken_time = $3, status = $4, snoozed = $5
		WHERE id = $1`,
		inst.ID, inst.ScheduledTime, inst.TakenTime, inst.Status, inst.Snoozed)
	if err != nil {
		p.logger.Errorf("failed to update dose log: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: dose instance %s: %w", inst.ID, internal.ErrNotFound)
	}
	return nil
}

// --- MedicationRepository ---

func (p *PostgresStorage) GetMedication(ctx context.Context, medicationID string) (*internal.Medication, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, brand_name, generic_name, dosage, notes, created_at FROM medications WHERE id = $1`, medicationID)
	var m internal.Medication
	if err := row.Scan(&m.ID, &m.UserID, &m.BrandName, &m.GenericName, &m.Dosage, &m.Notes, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("storage: medication %s: %w", medicationID, internal.ErrNotFound)
		}
		p.logger.Errorf("failed to fetch medication: %v", err)
		return nil, err
	}
	return &m, nil
}

// --- UserRepository ---

func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, token, email, name FROM users WHERE token = $1`, token)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Token, &u.Email, &u.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("storage: user: %w", internal.ErrNotFound)
		}
		p.logger.Errorf("failed to fetch user: %v", err)
		return nil, err
	}
	return &u, nil
}

// --- Compile-time assertions ---
var _ ScheduleRepository = (*PostgresStorage)(nil)
var _ DoseRepository = (*PostgresStorage)(nil)
var _ MedicationRepository = (*PostgresStorage)(nil)
var _ UserRepository = (*PostgresStorage)(nil)
