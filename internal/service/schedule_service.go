package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"go.uber.org/zap"
)

// ScheduleQuery запрос расписания тренера.
// From и To - календарные даты (включительно) в часовом поясе сервиса.
// Если ViewerTraineeID задан, чужие записи обезличиваются.
type ScheduleQuery struct {
	TrainerID       int64
	From            time.Time
	To              time.Time
	ViewerTraineeID *int64
}

type ScheduleService struct {
	reader   ScheduleReader
	location *time.Location
	logger   *zap.Logger
}

func NewScheduleService(reader ScheduleReader, location *time.Location, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		reader:   reader,
		location: location,
		logger:   logger,
	}
}

// GetSchedule возвращает слоты тренера, сгруппированные по дням
func (s *ScheduleService) GetSchedule(ctx context.Context, q ScheduleQuery) ([]model.ScheduleDay, error) {
	from := s.startOfDay(q.From)
	to := s.startOfDay(q.To)

	if err := RejectIfRangeExceeds(from, to, MaxQueryDays); err != nil {
		return nil, err
	}

	entries, err := s.reader.FindScheduleEntries(ctx, q.TrainerID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("find schedule entries: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Slot.StartAt.Before(entries[j].Slot.StartAt)
	})

	var days []model.ScheduleDay
	for _, entry := range entries {
		date := s.startOfDay(entry.Slot.StartAt)

		if len(days) == 0 || !days[len(days)-1].Date.Equal(date) {
			days = append(days, model.ScheduleDay{Date: date})
		}
		day := &days[len(days)-1]

		if entry.Slot.Status == model.SlotReserved {
			day.HasReserved = true
		}
		day.Slots = append(day.Slots, s.view(entry, q.ViewerTraineeID))
	}

	s.logger.Debug("Schedule projected",
		zap.Int64("trainer_id", q.TrainerID),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("days", len(days)),
		zap.Int("slots", len(entries)),
	)

	return days, nil
}

func (s *ScheduleService) view(entry model.ScheduleEntry, viewer *int64) model.SlotView {
	v := model.SlotView{
		SlotID:      entry.Slot.ID,
		StartAt:     entry.Slot.StartAt.In(s.location),
		EndAt:       entry.Slot.EndAt.In(s.location),
		Status:      entry.Slot.Status,
		TraineeID:   entry.TraineeID,
		TraineeName: entry.TraineeName,
	}

	if viewer == nil {
		return v
	}

	if entry.TraineeID == nil || *entry.TraineeID != *viewer {
		v.TraineeID = nil
		v.TraineeName = ""
		v.Masked = entry.Slot.Status.IsBooked()
	}
	return v
}

func (s *ScheduleService) startOfDay(t time.Time) time.Time {
	t = t.In(s.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
}
