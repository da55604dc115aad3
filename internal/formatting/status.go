package formatting

import "github.com/Freeeeeet/pt_scheduler/internal/model"

// SlotStatusDisplay представляет отображение статуса слота
type SlotStatusDisplay struct {
	Emoji string
	Text  string
}

// GetSlotStatusDisplay возвращает emoji и текст для статуса слота
func GetSlotStatusDisplay(status model.SlotStatus) SlotStatusDisplay {
	displays := map[model.SlotStatus]SlotStatusDisplay{
		model.SlotOpen:     {"🟢", "Свободен"},
		model.SlotApplied:  {"⏳", "Заявка"},
		model.SlotReserved: {"🔴", "Занят"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return SlotStatusDisplay{"❓", "Неизвестно"}
}
