package conversation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnera/turnos-ai-platform/internal/dialog"
)

func newStateStore(t *testing.T) (*StateStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStateStore(db), mock
}

func TestStateStoreLoad(t *testing.T) {
	store, mock := newStateStore(t)
	patientID := uuid.New()
	updated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT state, data, updated_at FROM conversation_states WHERE patient_id = \$1`).
		WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows([]string{"state", "data", "updated_at"}).
			AddRow("BOOKING_MENU", []byte(`{"intent":"book"}`), updated))

	st, err := store.Load(context.Background(), patientID)
	require.NoError(t, err)
	assert.Equal(t, "BOOKING_MENU", st.State)
	assert.JSONEq(t, `{"intent":"book"}`, string(st.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStoreLoadDefaultsToWelcome(t *testing.T) {
	store, mock := newStateStore(t)
	patientID := uuid.New()

	mock.ExpectQuery(`SELECT state, data, updated_at FROM conversation_states`).
		WithArgs(patientID).
		WillReturnError(sql.ErrNoRows)

	st, err := store.Load(context.Background(), patientID)
	require.NoError(t, err)
	assert.Equal(t, string(dialog.StateWelcome), st.State)
	assert.Empty(t, st.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStoreLoadError(t *testing.T) {
	store, mock := newStateStore(t)
	patientID := uuid.New()

	mock.ExpectQuery(`SELECT state, data, updated_at FROM conversation_states`).
		WithArgs(patientID).
		WillReturnError(errors.New("connection refused"))

	_, err := store.Load(context.Background(), patientID)
	assert.Error(t, err)
}

func TestStateStoreSave(t *testing.T) {
	store, mock := newStateStore(t)
	patientID := uuid.New()

	mock.ExpectExec(`INSERT INTO conversation_states .+ ON CONFLICT \(patient_id\) DO UPDATE`).
		WithArgs(patientID, "BOOKING_CHOOSE_DAY", []byte(`{"intent":"book"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), patientID, "BOOKING_CHOOSE_DAY", []byte(`{"intent":"book"}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStateStoreSaveEmptyDataBecomesObject(t *testing.T) {
	store, mock := newStateStore(t)
	patientID := uuid.New()

	mock.ExpectExec(`INSERT INTO conversation_states`).
		WithArgs(patientID, "FREE_CHAT", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), patientID, "FREE_CHAT", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
