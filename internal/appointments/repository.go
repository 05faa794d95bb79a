package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// ErrSlotTaken reports that the requested slot was claimed by another
// conversation between offer and confirmation.
var ErrSlotTaken = errors.New("appointments: slot already taken")

// DB is the pgx surface the repository needs; *pgxpool.Pool satisfies it and
// so do the pgxmock pools used in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for appointments and the slot inventory
// they book against.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const appointmentColumns = `id, org_id, patient_id, slot_id, starts_at, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OrgID, &a.PatientID, &a.SlotID, &a.StartsAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Active returns the patient's next confirmed appointment, or nil when none
// is on the calendar.
func (r *Repository) Active(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE patient_id = $1 AND status = 'confirmed' AND starts_at > now()
		 ORDER BY starts_at LIMIT 1`,
		patientID)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load active: %w", err)
	}
	return a, nil
}

// OpenSlots lists the unbooked slots inside the booking window as the
// engine's calendar feed. Labels carry the local start time only; the engine
// derives day headings itself.
func (r *Repository) OpenSlots(ctx context.Context, orgID uuid.UUID, from time.Time, days int, tz string) ([]dialog.CalendarSlot, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	until := from.AddDate(0, 0, days)

	rows, err := r.db.Query(ctx,
		`SELECT starts_at FROM slots
		 WHERE org_id = $1 AND NOT booked AND starts_at >= $2 AND starts_at < $3
		 ORDER BY starts_at`,
		orgID, from, until)
	if err != nil {
		return nil, fmt.Errorf("appointments: list open slots: %w", err)
	}
	defer rows.Close()

	var slots []dialog.CalendarSlot
	for rows.Next() {
		var startsAt time.Time
		if err := rows.Scan(&startsAt); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		local := startsAt.In(loc)
		slots = append(slots, dialog.CalendarSlot{
			StartISO: local.Format(time.RFC3339),
			Label:    local.Format("15:04") + " hs",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate slots: %w", err)
	}
	return slots, nil
}

// claimSlot marks the slot at startsAt as booked, returning its id. A slot
// that is missing or already booked yields ErrSlotTaken.
func claimSlot(ctx context.Context, tx pgx.Tx, orgID uuid.UUID, startsAt time.Time) (uuid.UUID, error) {
	var slotID uuid.UUID
	err := tx.QueryRow(ctx,
		`UPDATE slots SET booked = true, updated_at = now()
		 WHERE org_id = $1 AND starts_at = $2 AND NOT booked
		 RETURNING id`,
		orgID, startsAt).Scan(&slotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrSlotTaken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("appointments: claim slot: %w", err)
	}
	return slotID, nil
}

// Book claims the slot and creates a confirmed appointment in one
// transaction.
func (r *Repository) Book(ctx context.Context, orgID, patientID uuid.UUID, slotISO string) (*Appointment, error) {
	startsAt, err := time.Parse(time.RFC3339, slotISO)
	if err != nil {
		return nil, fmt.Errorf("appointments: parse slot time %q: %w", slotISO, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: book begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	slotID, err := claimSlot(ctx, tx, orgID, startsAt)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO appointments (id, org_id, patient_id, slot_id, starts_at, status)
		 VALUES ($1, $2, $3, $4, $5, 'confirmed')
		 RETURNING `+appointmentColumns,
		uuid.New(), orgID, patientID, slotID, startsAt)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: book commit: %w", err)
	}
	return a, nil
}

// Reschedule moves an appointment to a new slot, releasing the old slot and
// claiming the new one atomically.
func (r *Repository) Reschedule(ctx context.Context, appointmentID uuid.UUID, slotISO string) (*Appointment, error) {
	startsAt, err := time.Parse(time.RFC3339, slotISO)
	if err != nil {
		return nil, fmt.Errorf("appointments: parse slot time %q: %w", slotISO, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: reschedule begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`,
		appointmentID)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: reschedule load: %w", err)
	}

	newSlotID, err := claimSlot(ctx, tx, a.OrgID, startsAt)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE slots SET booked = false, updated_at = now() WHERE id = $1`,
		a.SlotID); err != nil {
		return nil, fmt.Errorf("appointments: release old slot: %w", err)
	}

	row = tx.QueryRow(ctx,
		`UPDATE appointments SET slot_id = $2, starts_at = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+appointmentColumns,
		appointmentID, newSlotID, startsAt)
	a, err = scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: reschedule update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: reschedule commit: %w", err)
	}
	return a, nil
}

// Cancel marks the appointment cancelled and puts its slot back on the
// calendar.
func (r *Repository) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: cancel begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var slotID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE appointments SET status = 'cancelled', updated_at = now()
		 WHERE id = $1 AND status = 'confirmed'
		 RETURNING slot_id`,
		appointmentID).Scan(&slotID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already cancelled; nothing to release.
		return tx.Commit(ctx)
	}
	if err != nil {
		return fmt.Errorf("appointments: cancel update: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE slots SET booked = false, updated_at = now() WHERE id = $1`,
		slotID); err != nil {
		return fmt.Errorf("appointments: release slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: cancel commit: %w", err)
	}
	return nil
}
