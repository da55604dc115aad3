package formatting

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
)

// FormatSlotLine одна строка слота в расписании
func FormatSlotLine(slot model.SlotView) string {
	display := GetSlotStatusDisplay(slot.Status)

	line := fmt.Sprintf("%s #%d %s %s",
		display.Emoji,
		slot.SlotID,
		FormatTimeRange(slot.StartAt, slot.EndAt),
		display.Text,
	)

	if slot.TraineeName != "" {
		line += " - " + html.EscapeString(slot.TraineeName)
	}
	return line
}

// FormatSchedule расписание, сгруппированное по дням
func FormatSchedule(days []model.ScheduleDay) string {
	if len(days) == 0 {
		return "📭 Слотов в этом периоде нет"
	}

	var sb strings.Builder
	for i, day := range days {
		if i > 0 {
			sb.WriteString("\n")
		}

		marker := ""
		if day.HasReserved {
			marker = " 📌"
		}
		sb.WriteString(fmt.Sprintf("📅 <b>%s</b>%s\n", FormatDateWithWeekday(day.Date), marker))

		for _, slot := range day.Slots {
			sb.WriteString(FormatSlotLine(slot))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatLedger баланс контракта
func FormatLedger(ledger *model.SessionLedger) string {
	return fmt.Sprintf(
		"📒 <b>Контракт #%d</b>\n\n"+
			"Всего: %d\n"+
			"Использовано: %d\n"+
			"Осталось: %d %s",
		ledger.ID,
		ledger.TotalSession,
		ledger.UsedSession,
		ledger.Remaining(),
		PluralizeSessions(ledger.Remaining()),
	)
}
