package handlers

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleSchedule обрабатывает команду /schedule.
// Тренер видит своё расписание, клиент - расписание тренера с обезличенными чужими записями.
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	query := service.ScheduleQuery{TrainerID: user.ID}
	title := "🗓 <b>Моё расписание</b>"

	if user.Role == model.RoleTrainee {
		trainer, rest, err := h.pickTrainer(ctx, user, args)
		if err != nil {
			h.replyError(ctx, b, chatID, "schedule", err)
			return
		}
		args = rest
		viewer := user.ID
		query.TrainerID = trainer.ID
		query.ViewerTraineeID = &viewer
		title = fmt.Sprintf("🗓 <b>Расписание: %s</b>", html.EscapeString(trainer.DisplayName()))
	}

	from, to, err := parseRange(args, h.today(), h.location)
	if err != nil {
		h.replyError(ctx, b, chatID, "schedule", err)
		return
	}
	query.From, query.To = from, to

	days, err := h.scheduleService.GetSchedule(ctx, query)
	if err != nil {
		h.replyError(ctx, b, chatID, "schedule", err)
		return
	}

	h.markRead(ctx, user)

	text := fmt.Sprintf("%s\n%s - %s\n\n%s",
		title, formatting.FormatDate(from), formatting.FormatDate(to), formatting.FormatSchedule(days))
	h.sendHTML(ctx, b, chatID, text, scheduleKeyboard(days, user.Role, h.now()))
}

// pickTrainer тренер для клиента: из аргумента @username или единственный по контрактам
func (h *Handlers) pickTrainer(ctx context.Context, user *model.User, args []string) (*model.User, []string, error) {
	if len(args) > 0 && isUsername(args[0]) {
		trainer, err := h.userService.FindByUsername(ctx, args[0])
		if err != nil {
			return nil, nil, err
		}
		return trainer, args[1:], nil
	}

	ledgers, err := h.ledgerService.ListForTrainee(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(ledgers) != 1 {
		// без контракта или с несколькими тренерами нужно указать тренера явно
		return nil, nil, fmt.Errorf("%w: trainer is ambiguous (%d ledgers)", errBadArgs, len(ledgers))
	}

	trainer, err := h.userService.GetByID(ctx, ledgers[0].TrainerID)
	if err != nil {
		return nil, nil, err
	}
	if trainer == nil {
		return nil, nil, fmt.Errorf("%w: id %d", model.ErrUserNotFound, ledgers[0].TrainerID)
	}
	return trainer, args, nil
}

// scheduleKeyboard кнопки быстрых действий: клиенту - записаться на свободные слоты,
// тренеру - решить по заявкам. Прошедшие слоты без кнопок.
func scheduleKeyboard(days []model.ScheduleDay, role model.Role, now time.Time) *models.InlineKeyboardMarkup {
	kb := keyboard.NewBuilder()

	for _, day := range days {
		for _, slot := range day.Slots {
			if kb.Len() >= keyboard.MaxSlotButtons {
				return kb.Build()
			}
			if !slot.StartAt.After(now) {
				continue
			}

			label := fmt.Sprintf("%s %s", formatting.FormatDate(slot.StartAt), formatting.FormatTime(slot.StartAt))

			switch {
			case role == model.RoleTrainee && slot.Status == model.SlotOpen:
				kb.Row(keyboard.Button("📝 "+label, keyboard.SlotData(keyboard.ApplySlot, slot.SlotID)))
			case role == model.RoleTrainer && slot.Status == model.SlotApplied:
				kb.Row(
					keyboard.Button("✅ "+label, keyboard.SlotData(keyboard.AcceptSlot, slot.SlotID)),
					keyboard.Button("❌ "+label, keyboard.SlotData(keyboard.RejectSlot, slot.SlotID)),
				)
			}
		}
	}

	return kb.Build()
}
