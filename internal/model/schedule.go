package model

import "time"

// ScheduleEntry слот вместе с клиентом, на которого он записан (для чтения)
type ScheduleEntry struct {
	Slot        SlotRecord
	TraineeID   *int64
	TraineeName string
}

// SlotView слот в проекции расписания
type SlotView struct {
	SlotID      int64      `json:"slot_id"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	Status      SlotStatus `json:"status"`
	TraineeID   *int64     `json:"trainee_id,omitempty"`
	TraineeName string     `json:"trainee_name,omitempty"`
	Masked      bool       `json:"masked"` // занято другим клиентом
}

// ScheduleDay слоты одного календарного дня
type ScheduleDay struct {
	Date        time.Time  `json:"date"`
	HasReserved bool       `json:"has_reserved"`
	Slots       []SlotView `json:"slots"`
}
