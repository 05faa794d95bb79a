package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

// StoredState is the persisted conversation pointer: the state name plus the
// opaque working-memory blob.
type StoredState struct {
	State     string
	Data      []byte
	UpdatedAt time.Time
}

// StateStore persists per-patient conversation state in PostgreSQL.
type StateStore struct {
	db *sql.DB
}

// NewStateStore creates a store backed by a database/sql handle.
func NewStateStore(db *sql.DB) *StateStore {
	if db == nil {
		panic("conversation: db handle required")
	}
	return &StateStore{db: db}
}

// Load returns the stored state for a patient. A patient with no row yet
// starts at WELCOME with empty working memory.
func (s *StateStore) Load(ctx context.Context, patientID uuid.UUID) (StoredState, error) {
	var st StoredState
	err := s.db.QueryRowContext(ctx,
		`SELECT state, data, updated_at FROM conversation_states WHERE patient_id = $1`,
		patientID).Scan(&st.State, &st.Data, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredState{State: string(dialog.StateWelcome)}, nil
	}
	if err != nil {
		return StoredState{}, fmt.Errorf("conversation: load state: %w", err)
	}
	return st, nil
}

// Save upserts the state row for a patient.
func (s *StateStore) Save(ctx context.Context, patientID uuid.UUID, state string, data []byte) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_states (patient_id, state, data, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (patient_id) DO UPDATE SET state = EXCLUDED.state, data = EXCLUDED.data, updated_at = now()`,
		patientID, state, data)
	if err != nil {
		return fmt.Errorf("conversation: save state: %w", err)
	}
	return nil
}
