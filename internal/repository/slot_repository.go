package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `id, trainer_id, start_at, end_at, status, ledger_id, batch_id, created_at, updated_at`

// slotTrainerStartIndex уникальный индекс (trainer_id, start_at)
const slotTrainerStartIndex = "schedule_slots_trainer_start_uq"

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(db base.DBTX) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(db)}
}

// GetForUpdate получает слот по ID и блокирует его до конца транзакции
func (r *SlotRepository) GetForUpdate(ctx context.Context, id int64) (*model.SlotRecord, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE id = $1
		FOR UPDATE
	`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetManyForUpdate блокирует слоты по списку ID; порядок блокировки по id
func (r *SlotRepository) GetManyForUpdate(ctx context.Context, ids []int64) ([]*model.SlotRecord, error) {
	if len(ids) == 0 {
		return []*model.SlotRecord{}, nil
	}

	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get slots by ids: %w", err)
	}

	return collectSlots(rows)
}

// FindByTrainerAndTimeRange слоты тренера с началом в [from, to)
func (r *SlotRepository) FindByTrainerAndTimeRange(ctx context.Context, trainerID int64, from, to time.Time) ([]*model.SlotRecord, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE trainer_id = $1
		  AND start_at >= $2
		  AND start_at < $3
		ORDER BY start_at
		FOR UPDATE
	`

	rows, err := r.Query(ctx, query, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get slots by trainer: %w", err)
	}

	return collectSlots(rows)
}

// CreateMany вставляет слоты и проставляет им id.
// Нарушение уникальности (trainer_id, start_at) - ErrScheduleAlreadyExists.
func (r *SlotRepository) CreateMany(ctx context.Context, slots []*model.SlotRecord) error {
	query := `
		INSERT INTO schedule_slots (trainer_id, start_at, end_at, status, ledger_id, batch_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	for _, slot := range slots {
		err := r.QueryRow(
			ctx, query,
			slot.TrainerID,
			slot.StartAt,
			slot.EndAt,
			string(slot.Status),
			slot.LedgerID,
			slot.BatchID,
		).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

		if err != nil {
			if base.IsUniqueViolation(err, slotTrainerStartIndex) {
				return fmt.Errorf("%w: %s", model.ErrScheduleAlreadyExists, slot.StartAt.Format(time.RFC3339))
			}
			return fmt.Errorf("create slot: %w", err)
		}
	}

	return nil
}

// Update сохраняет статус и контракт слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.SlotRecord) error {
	query := `
		UPDATE schedule_slots
		SET status = $1, ledger_id = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, string(slot.Status), slot.LedgerID, slot.ID).Scan(&slot.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: id %d", model.ErrScheduleNotFound, slot.ID)
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// DeleteMany удаляет свободные слоты; забронированные не трогает
func (r *SlotRepository) DeleteMany(ctx context.Context, ids []int64) error {
	query := `
		DELETE FROM schedule_slots
		WHERE id = ANY($1) AND status = 'open'
	`

	affected, err := r.ExecAffected(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}

	if affected != int64(len(ids)) {
		return fmt.Errorf("%w: deleted %d of %d", model.ErrScheduleStatusNotOpen, affected, len(ids))
	}

	return nil
}

// CountBookedByLedger число слотов в applied/reserved под контрактом
func (r *SlotRepository) CountBookedByLedger(ctx context.Context, ledgerID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM schedule_slots
		WHERE ledger_id = $1 AND status IN ('applied', 'reserved')
	`

	var count int
	if err := r.QueryRow(ctx, query, ledgerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count booked slots: %w", err)
	}

	return count, nil
}

func scanSlot(row pgx.Row) (*model.SlotRecord, error) {
	var (
		slot   model.SlotRecord
		status string
	)
	err := row.Scan(
		&slot.ID,
		&slot.TrainerID,
		&slot.StartAt,
		&slot.EndAt,
		&status,
		&slot.LedgerID,
		&slot.BatchID,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Status, err = model.ParseSlotStatus(status)
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", slot.ID, err)
	}

	if !slot.Consistent() {
		return nil, fmt.Errorf("slot %d: %w: status %s with ledger %v", slot.ID, model.ErrInvalidScheduleStatus, slot.Status, slot.LedgerID)
	}

	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.SlotRecord, error) {
	defer rows.Close()

	var slots []*model.SlotRecord
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}
