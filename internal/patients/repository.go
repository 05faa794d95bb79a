package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// DB is the pgx surface the repository needs; *pgxpool.Pool satisfies it and
// so do the pgxmock pools used in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for patient records.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const patientColumns = `id, org_id, phone, full_name, dni, birth_date, address, insurance, consult_reason,
	needs_dni, needs_name, needs_birth_date, needs_address, needs_insurance, needs_consult_reason,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.OrgID, &p.Phone, &p.FullName, &p.DNI, &p.BirthDate, &p.Address, &p.Insurance, &p.ConsultReason,
		&p.NeedsDNI, &p.NeedsName, &p.NeedsBirthDate, &p.NeedsAddress, &p.NeedsInsurance, &p.NeedsConsultReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreateByPhone loads the active patient behind a phone number, creating
// a fresh record with every onboarding flag armed on first contact.
func (r *Repository) GetOrCreateByPhone(ctx context.Context, orgID uuid.UUID, phone string) (*Patient, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE org_id = $1 AND phone = $2 AND merged_into IS NULL`,
		orgID, phone)
	p, err := scanPatient(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("patients: load by phone: %w", err)
	}

	row = r.db.QueryRow(ctx,
		`INSERT INTO patients (id, org_id, phone, needs_dni, needs_name, needs_birth_date, needs_address, needs_insurance, needs_consult_reason)
		 VALUES ($1, $2, $3, true, true, true, true, true, true)
		 RETURNING `+patientColumns,
		uuid.New(), orgID, phone)
	p, err = scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("patients: create by phone: %w", err)
	}
	return p, nil
}

// Get loads one patient by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("patients: load: %w", err)
	}
	return p, nil
}

// FindByDNI resolves a DNI to an existing active snapshot, or nil when no
// other record owns it. This backs the engine's duplicate-detection hook.
func (r *Repository) FindByDNI(ctx context.Context, orgID uuid.UUID, dni string) (*dialog.ProfileSnapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE org_id = $1 AND dni = $2 AND merged_into IS NULL`,
		orgID, dni)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("patients: find by dni: %w", err)
	}
	snap := p.Snapshot()
	return &snap, nil
}

// patchColumns maps each ProfilePatch field to its column in a fixed order so
// the generated statement is deterministic.
func patchAssignments(patch *dialog.ProfilePatch) (columns []string, args []any) {
	add := func(col string, val any) {
		columns = append(columns, col)
		args = append(args, val)
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.DNI != nil {
		add("dni", *patch.DNI)
	}
	if patch.BirthDate != nil {
		add("birth_date", *patch.BirthDate)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Insurance != nil {
		add("insurance", *patch.Insurance)
	}
	if patch.ConsultReason != nil {
		add("consult_reason", *patch.ConsultReason)
	}
	if patch.NeedsName != nil {
		add("needs_name", *patch.NeedsName)
	}
	if patch.NeedsDNI != nil {
		add("needs_dni", *patch.NeedsDNI)
	}
	if patch.NeedsBirthDate != nil {
		add("needs_birth_date", *patch.NeedsBirthDate)
	}
	if patch.NeedsAddress != nil {
		add("needs_address", *patch.NeedsAddress)
	}
	if patch.NeedsInsurance != nil {
		add("needs_insurance", *patch.NeedsInsurance)
	}
	if patch.NeedsConsultReason != nil {
		add("needs_consult_reason", *patch.NeedsConsultReason)
	}
	return columns, args
}

// ApplyPatch persists the field-level updates the engine proposed. A nil or
// empty patch is a no-op.
func (r *Repository) ApplyPatch(ctx context.Context, id uuid.UUID, patch *dialog.ProfilePatch) error {
	if patch == nil {
		return nil
	}
	columns, args := patchAssignments(patch)
	if len(columns) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE patients SET ")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = $%d", col, i+1)
	}
	fmt.Fprintf(&sb, ", updated_at = now() WHERE id = $%d", len(columns)+1)
	args = append(args, id)

	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("patients: apply patch: %w", err)
	}
	return nil
}

// Merge hands the source record's phone over to the target and marks the
// source as merged, so the conversation continues on the record that already
// owns the DNI.
func (r *Repository) Merge(ctx context.Context, fromID, intoID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("patients: merge begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var phone string
	if err := tx.QueryRow(ctx, `SELECT phone FROM patients WHERE id = $1 FOR UPDATE`, fromID).Scan(&phone); err != nil {
		return fmt.Errorf("patients: merge load source: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE patients SET phone = NULL, merged_into = $2, updated_at = now() WHERE id = $1`,
		fromID, intoID); err != nil {
		return fmt.Errorf("patients: merge retire source: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE patients SET phone = $2, updated_at = now() WHERE id = $1`,
		intoID, phone); err != nil {
		return fmt.Errorf("patients: merge adopt phone: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("patients: merge commit: %w", err)
	}
	return nil
}
