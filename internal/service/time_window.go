package service

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
)

const (
	// MinApplyLead минимальный запас времени до начала слота при записи
	MinApplyLead = time.Hour
	// CancellationWindow окно перед началом, в которое клиент не может отменить подтверждённое занятие
	CancellationWindow = 24 * time.Hour
	// MaxQueryDays максимальная длина запроса расписания
	MaxQueryDays = 180
)

// RejectIfPast слот уже начался
func RejectIfPast(startAt, now time.Time) error {
	if startAt.Before(now) {
		return fmt.Errorf("%w: %s", model.ErrScheduleStartInPast, startAt.Format(time.RFC3339))
	}
	return nil
}

// RejectIfTooSoon до начала меньше часа
func RejectIfTooSoon(startAt, now time.Time) error {
	if startAt.Before(now.Add(MinApplyLead)) {
		return fmt.Errorf("%w: %s", model.ErrScheduleStartsTooSoon, startAt.Format(time.RFC3339))
	}
	return nil
}

// RejectIfWithin24h до начала меньше суток
func RejectIfWithin24h(startAt, now time.Time) error {
	if startAt.Sub(now) < CancellationWindow {
		return fmt.Errorf("%w: %s", model.ErrCancellationTooLate, startAt.Format(time.RFC3339))
	}
	return nil
}

// RejectIfRangeExceeds даты считаются календарными, границы включительно
func RejectIfRangeExceeds(startDate, endDate time.Time, maxDays int) error {
	if endDate.Before(startDate) {
		return fmt.Errorf("%w: %s > %s", model.ErrInvalidDateRange,
			startDate.Format(time.DateOnly), endDate.Format(time.DateOnly))
	}
	if daysBetween(startDate, endDate) > maxDays {
		return fmt.Errorf("%w: max %d days", model.ErrQueryRangeTooLong, maxDays)
	}
	return nil
}

// daysBetween количество календарных дней между датами (без учёта перехода на летнее время)
func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
