package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotGetForUpdateLocksRow(t *testing.T) {
	mock := newMockPool(t)
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM schedule_slots\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(slotRow(3, 1, start, "open", nil))

	slot, err := NewSlotRepository(mock).GetForUpdate(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, model.SlotOpen, slot.Status)
	assert.Equal(t, start, slot.StartAt)
	assert.Nil(t, slot.LedgerID)
}

func TestSlotGetForUpdateMissingIsNil(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM schedule_slots\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	slot, err := NewSlotRepository(mock).GetForUpdate(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestSlotScanRejectsInconsistentRow(t *testing.T) {
	mock := newMockPool(t)
	ledgerID := int64(5)

	mock.ExpectQuery(`FROM schedule_slots\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(slotRow(3, 1, stamp, "open", &ledgerID))

	_, err := NewSlotRepository(mock).GetForUpdate(context.Background(), 3)
	assert.ErrorIs(t, err, model.ErrInvalidScheduleStatus)
}

func TestSlotGetManyForUpdateLocksInIDOrder(t *testing.T) {
	mock := newMockPool(t)
	ledgerID := int64(5)

	rows := slotRow(3, 1, stamp, "open", nil).
		AddRow(int64(5), int64(1), stamp.Add(time.Hour), stamp.Add(2*time.Hour), "reserved", &ledgerID, nil, stamp, stamp)
	mock.ExpectQuery(`WHERE id = ANY\(\$1\)\s+ORDER BY id\s+FOR UPDATE`).
		WithArgs([]int64{5, 3}).
		WillReturnRows(rows)

	slots, err := NewSlotRepository(mock).GetManyForUpdate(context.Background(), []int64{5, 3})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, int64(3), slots[0].ID)
	assert.Equal(t, model.SlotReserved, slots[1].Status)
	require.NotNil(t, slots[1].LedgerID)
	assert.Equal(t, ledgerID, *slots[1].LedgerID)
}

func TestSlotFindByTrainerLocksRange(t *testing.T) {
	mock := newMockPool(t)
	from := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	to := from.Add(3 * time.Hour)

	mock.ExpectQuery(`WHERE trainer_id = \$1\s+AND start_at >= \$2\s+AND start_at < \$3\s+ORDER BY start_at\s+FOR UPDATE`).
		WithArgs(int64(1), from, to).
		WillReturnRows(pgxmock.NewRows(slotRowColumns))

	slots, err := NewSlotRepository(mock).FindByTrainerAndTimeRange(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotCreateManyMapsUniqueViolation(t *testing.T) {
	mock := newMockPool(t)
	batchID := uuid.New()
	first := model.NewOpenSlot(1, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), batchID)
	second := model.NewOpenSlot(1, time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC), batchID)

	mock.ExpectQuery(`INSERT INTO schedule_slots`).
		WithArgs(int64(1), first.StartAt, first.EndAt, "open", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), stamp, stamp))
	mock.ExpectQuery(`INSERT INTO schedule_slots`).
		WithArgs(int64(1), second.StartAt, second.EndAt, "open", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: slotTrainerStartIndex})

	err := NewSlotRepository(mock).CreateMany(context.Background(), []*model.SlotRecord{first, second})
	require.ErrorIs(t, err, model.ErrScheduleAlreadyExists)
	assert.Equal(t, model.KindConflict, model.KindOf(err))
	assert.Equal(t, int64(7), first.ID)
}

func TestSlotCreateManyOtherConstraintIsNotConflict(t *testing.T) {
	mock := newMockPool(t)
	slot := model.NewOpenSlot(1, stamp, uuid.New())

	mock.ExpectQuery(`INSERT INTO schedule_slots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "schedule_slots_pkey"})

	err := NewSlotRepository(mock).CreateMany(context.Background(), []*model.SlotRecord{slot})
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrScheduleAlreadyExists)
}

func TestSlotUpdateMissingRow(t *testing.T) {
	mock := newMockPool(t)
	slot := &model.SlotRecord{ID: 9, Status: model.SlotOpen}

	mock.ExpectQuery(`UPDATE schedule_slots\s+SET status = \$1, ledger_id = \$2`).
		WithArgs("open", pgxmock.AnyArg(), int64(9)).
		WillReturnError(pgx.ErrNoRows)

	err := NewSlotRepository(mock).Update(context.Background(), slot)
	assert.ErrorIs(t, err, model.ErrScheduleNotFound)
}

func TestSlotDeleteManyChecksAffectedRows(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSlotRepository(mock)

	mock.ExpectExec(`DELETE FROM schedule_slots\s+WHERE id = ANY\(\$1\) AND status = 'open'`).
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	require.NoError(t, repo.DeleteMany(context.Background(), []int64{1, 2}))

	mock.ExpectExec(`DELETE FROM schedule_slots\s+WHERE id = ANY\(\$1\) AND status = 'open'`).
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	err := repo.DeleteMany(context.Background(), []int64{1, 2})
	assert.ErrorIs(t, err, model.ErrScheduleStatusNotOpen)
}

func TestSlotCountBookedByLedger(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM schedule_slots\s+WHERE ledger_id = \$1 AND status IN \('applied', 'reserved'\)`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	n, err := NewSlotRepository(mock).CountBookedByLedger(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
