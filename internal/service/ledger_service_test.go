package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ledger, err := env.ledgers.CreateLedger(ctx, trainerCaller(trainerID), traineeA, 12)
	require.NoError(t, err)
	assert.NotZero(t, ledger.ID)
	assert.Equal(t, 12, ledger.Remaining())

	_, err = env.ledgers.CreateLedger(ctx, trainerCaller(trainerID), traineeA, 5)
	assert.ErrorIs(t, err, model.ErrLedgerAlreadyExists)

	_, err = env.ledgers.CreateLedger(ctx, trainerCaller(trainerID), traineeB, -1)
	assert.ErrorIs(t, err, model.ErrInvalidCapacity)

	_, err = env.ledgers.CreateLedger(ctx, traineeCaller(traineeA), traineeB, 5)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestTerminatedLedgerAllowsNewContract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := trainerCaller(trainerID)

	_, err := env.ledgers.CreateLedger(ctx, trainer, traineeA, 4)
	require.NoError(t, err)
	_, err = env.ledgers.Terminate(ctx, trainer, traineeA)
	require.NoError(t, err)

	_, err = env.ledgers.GetActive(ctx, trainerID, traineeA)
	assert.ErrorIs(t, err, model.ErrLedgerNotFound)

	renewed, err := env.ledgers.CreateLedger(ctx, trainer, traineeA, 8)
	require.NoError(t, err)

	active, err := env.ledgers.GetActive(ctx, trainerID, traineeA)
	require.NoError(t, err)
	assert.Equal(t, renewed.ID, active.ID)
}

func TestAdjustCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := trainerCaller(trainerID)
	ledger := env.store.seedLedger(trainerID, traineeA, 10, 6)

	updated, err := env.ledgers.AdjustCapacity(ctx, trainer, traineeA, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.TotalSession)

	_, err = env.ledgers.AdjustCapacity(ctx, trainer, traineeA, -10)
	assert.ErrorIs(t, err, model.ErrInvalidCapacity)
	assert.Equal(t, 15, env.store.ledger(ledger.ID).TotalSession)

	updated, err = env.ledgers.AdjustCapacity(ctx, trainer, traineeA, -9)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.TotalSession)
	assert.Equal(t, 0, updated.Remaining())

	_, err = env.ledgers.AdjustCapacity(ctx, trainer, traineeB, 1)
	assert.ErrorIs(t, err, model.ErrLedgerNotFound)
}

func TestAuditReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	healthy := env.store.seedLedger(trainerID, traineeA, 10, 1)
	env.store.seedSlot(trainerID, at(3, 10), model.SlotReserved, &healthy.ID)
	drifted := env.store.seedLedger(trainerID, traineeB, 10, 3)
	env.store.seedSlot(trainerID, at(3, 11), model.SlotApplied, &drifted.ID)

	drifts, err := env.ledgers.Audit(context.Background())
	require.NoError(t, err)

	require.Len(t, drifts, 1)
	assert.Equal(t, LedgerDrift{LedgerID: drifted.ID, UsedSession: 3, BookedSlots: 1}, drifts[0])
	assert.Empty(t, env.store.writes)
	assert.Equal(t, 1, env.store.snapshots)
}

func TestAuditAfterWorkflowIsClean(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := at(1, 0)
	env.store.seedLedger(trainerID, traineeA, 5, 0)

	opened, err := env.batch.OpenSlots(ctx, trainerCaller(trainerID),
		[]time.Time{at(3, 10), at(3, 11), at(3, 12)}, now)
	require.NoError(t, err)
	for _, slot := range opened.Slots[:2] {
		_, err := env.booking.Apply(ctx, traineeCaller(traineeA), slot.ID, now)
		require.NoError(t, err)
	}
	_, err = env.booking.Reject(ctx, trainerCaller(trainerID), opened.Slots[0].ID)
	require.NoError(t, err)

	drifts, err := env.ledgers.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
	env.store.assertInvariants(t)
}
