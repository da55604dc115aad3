package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/repository/base"
)

// ScheduleRepository читающая сторона расписания: слоты вместе с клиентом
type ScheduleRepository struct {
	*base.Repository
}

func NewScheduleRepository(db base.DBTX) *ScheduleRepository {
	return &ScheduleRepository{Repository: base.NewRepository(db)}
}

// FindScheduleEntries слоты тренера с началом в [from, to) и именем клиента, если слот занят
func (r *ScheduleRepository) FindScheduleEntries(ctx context.Context, trainerID int64, from, to time.Time) ([]model.ScheduleEntry, error) {
	query := `
		SELECT s.id, s.trainer_id, s.start_at, s.end_at, s.status, s.ledger_id, s.batch_id, s.created_at, s.updated_at,
		       l.trainee_id, COALESCE(u.first_name, ''), COALESCE(u.last_name, '')
		FROM schedule_slots s
		LEFT JOIN session_ledgers l ON l.id = s.ledger_id
		LEFT JOIN users u ON u.id = l.trainee_id
		WHERE s.trainer_id = $1
		  AND s.start_at >= $2
		  AND s.start_at < $3
		ORDER BY s.start_at
	`

	rows, err := r.Query(ctx, query, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var (
			entry               model.ScheduleEntry
			status              string
			firstName, lastName string
		)
		err := rows.Scan(
			&entry.Slot.ID,
			&entry.Slot.TrainerID,
			&entry.Slot.StartAt,
			&entry.Slot.EndAt,
			&status,
			&entry.Slot.LedgerID,
			&entry.Slot.BatchID,
			&entry.Slot.CreatedAt,
			&entry.Slot.UpdatedAt,
			&entry.TraineeID,
			&firstName,
			&lastName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}

		entry.Slot.Status, err = model.ParseSlotStatus(status)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", entry.Slot.ID, err)
		}
		entry.TraineeName = strings.TrimSpace(firstName + " " + lastName)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule entries: %w", err)
	}

	return entries, nil
}
