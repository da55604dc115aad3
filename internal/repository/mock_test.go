package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

var (
	slotRowColumns   = []string{"id", "trainer_id", "start_at", "end_at", "status", "ledger_id", "batch_id", "created_at", "updated_at"}
	ledgerRowColumns = []string{"id", "trainer_id", "trainee_id", "total_session", "used_session", "terminated", "created_at", "updated_at"}

	stamp = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
)

// newMockPool пул pgxmock; в конце теста проверяет, что все ожидаемые запросы выполнены
func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func slotRow(id, trainerID int64, startAt time.Time, status string, ledgerID *int64) *pgxmock.Rows {
	var ledger any
	if ledgerID != nil {
		ledger = ledgerID
	}
	return pgxmock.NewRows(slotRowColumns).
		AddRow(id, trainerID, startAt, startAt.Add(time.Hour), status, ledger, nil, stamp, stamp)
}

func ledgerRow(id, trainerID, traineeID int64, total, used int) *pgxmock.Rows {
	return pgxmock.NewRows(ledgerRowColumns).
		AddRow(id, trainerID, traineeID, total, used, false, stamp, stamp)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, int64, string, string, time.Time) error { return nil }
