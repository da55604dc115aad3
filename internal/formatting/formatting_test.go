package formatting

import (
	"testing"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPluralizeSessions(t *testing.T) {
	assert.Equal(t, "занятие", PluralizeSessions(1))
	assert.Equal(t, "занятия", PluralizeSessions(3))
	assert.Equal(t, "занятий", PluralizeSessions(5))
	assert.Equal(t, "занятий", PluralizeSessions(11))
	assert.Equal(t, "занятие", PluralizeSessions(21))
	assert.Equal(t, "занятия", PluralizeSessions(22))
}

func TestFormatSchedule(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	traineeID := int64(5)

	text := FormatSchedule([]model.ScheduleDay{{
		Date:        date,
		HasReserved: true,
		Slots: []model.SlotView{
			{SlotID: 1, StartAt: date.Add(10 * time.Hour), EndAt: date.Add(11 * time.Hour), Status: model.SlotReserved, TraineeID: &traineeID, TraineeName: "Анна"},
			{SlotID: 2, StartAt: date.Add(11 * time.Hour), EndAt: date.Add(12 * time.Hour), Status: model.SlotOpen},
		},
	}})

	assert.Contains(t, text, "01.01.2024 Пн")
	assert.Contains(t, text, "📌")
	assert.Contains(t, text, "#1 10:00-11:00 Занят - Анна")
	assert.Contains(t, text, "#2 11:00-12:00 Свободен")
}

func TestFormatScheduleEmpty(t *testing.T) {
	assert.Contains(t, FormatSchedule(nil), "Слотов в этом периоде нет")
}
