package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"addressme/verification"
)

// PostgresStore persists slots and appointments in PostgreSQL. Slot overlap
// is checked under a transaction-scoped advisory lock per verifier; the
// partial unique indexes on appointments back the one-booking rules.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const slotColumns = `id, verifier_id, starts_at, ends_at, booked, created_at`

const appointmentColumns = `id, slot_id, request_id, resident_id, verifier_id, starts_at, ends_at, status, notes, created_at, updated_at`

func (r *PostgresStore) CreateSlot(ctx context.Context, slot Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('interview_slots:' || $1))`, slot.VerifierID); err != nil {
		return fmt.Errorf("scheduling: lock verifier slots: %w", err)
	}

	var overlap bool
	const overlapSQL = `
SELECT EXISTS (
    SELECT 1 FROM interview_slots
    WHERE verifier_id = $1 AND starts_at < $3 AND ends_at > $2
)`
	if err := tx.QueryRow(ctx, overlapSQL, slot.VerifierID, slot.StartsAt, slot.EndsAt).Scan(&overlap); err != nil {
		return fmt.Errorf("scheduling: check overlap: %w", err)
	}
	if overlap {
		return ErrConflict
	}

	const insertSQL = `
INSERT INTO interview_slots (id, verifier_id, starts_at, ends_at, booked, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	if _, err := tx.Exec(ctx, insertSQL, slot.ID, slot.VerifierID, slot.StartsAt, slot.EndsAt, slot.Booked, slot.CreatedAt); err != nil {
		return fmt.Errorf("scheduling: insert slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit: %w", err)
	}
	return nil
}

func (r *PostgresStore) GetSlot(ctx context.Context, id string) (Slot, error) {
	slot, err := scanSlot(r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM interview_slots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Slot{}, verification.ErrNotFound
		}
		return Slot{}, fmt.Errorf("scheduling: get slot: %w", err)
	}
	return slot, nil
}

func (r *PostgresStore) OpenSlots(ctx context.Context, verifierID string, after time.Time) ([]Slot, error) {
	const q = `
SELECT ` + slotColumns + `
FROM interview_slots
WHERE NOT booked AND starts_at > $1 AND ($2 = '' OR verifier_id = $2)
ORDER BY starts_at, id
LIMIT 200
`
	rows, err := r.pool.Query(ctx, q, after, verifierID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list open slots: %w", err)
	}
	defer rows.Close()

	slots := make([]Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scheduling: scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: iterate slots: %w", err)
	}
	return slots, nil
}

func (r *PostgresStore) Book(ctx context.Context, appt Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE interview_slots SET booked = TRUE WHERE id = $1 AND NOT booked`, appt.SlotID)
	if err != nil {
		return fmt.Errorf("scheduling: take slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM interview_slots WHERE id = $1)`, appt.SlotID).Scan(&exists); err != nil {
			return fmt.Errorf("scheduling: check slot: %w", err)
		}
		if !exists {
			return verification.ErrNotFound
		}
		return ErrConflict
	}

	const insertSQL = `
INSERT INTO appointments (` + appointmentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	if _, err := tx.Exec(ctx, insertSQL,
		appt.ID,
		appt.SlotID,
		appt.RequestID,
		appt.ResidentID,
		appt.VerifierID,
		appt.StartsAt,
		appt.EndsAt,
		string(appt.Status),
		appt.Notes,
		appt.CreatedAt,
		appt.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("scheduling: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("scheduling: commit: %w", err)
	}
	return nil
}

func (r *PostgresStore) UpdateAppointment(ctx context.Context, id string, fn func(*Appointment) error) (Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("scheduling: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Appointment{}, verification.ErrNotFound
		}
		return Appointment{}, fmt.Errorf("scheduling: load appointment: %w", err)
	}

	next := current
	if err := fn(&next); err != nil {
		return Appointment{}, err
	}

	const updateSQL = `
UPDATE appointments
SET status = $2, notes = $3, updated_at = $4
WHERE id = $1
`
	if _, err := tx.Exec(ctx, updateSQL, id, string(next.Status), next.Notes, next.UpdatedAt); err != nil {
		return Appointment{}, fmt.Errorf("scheduling: update appointment: %w", err)
	}
	if current.Status == AppointmentScheduled && next.Status == AppointmentCancelled {
		if _, err := tx.Exec(ctx, `UPDATE interview_slots SET booked = FALSE WHERE id = $1`, next.SlotID); err != nil {
			return Appointment{}, fmt.Errorf("scheduling: release slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Appointment{}, fmt.Errorf("scheduling: commit: %w", err)
	}
	return next, nil
}

func (r *PostgresStore) AppointmentsForRequest(ctx context.Context, requestID string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE request_id = $1 ORDER BY starts_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scheduling: scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scheduling: iterate appointments: %w", err)
	}
	return out, nil
}

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	if err := row.Scan(&s.ID, &s.VerifierID, &s.StartsAt, &s.EndsAt, &s.Booked, &s.CreatedAt); err != nil {
		return Slot{}, err
	}
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a      Appointment
		status string
	)
	if err := row.Scan(&a.ID, &a.SlotID, &a.RequestID, &a.ResidentID, &a.VerifierID,
		&a.StartsAt, &a.EndsAt, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Appointment{}, err
	}
	a.Status = AppointmentStatus(status)
	a.StartsAt = a.StartsAt.UTC()
	a.EndsAt = a.EndsAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}
