package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleOpen обрабатывает команду /open ДД.ММ.ГГГГ ЧЧ:ММ [ЧЧ:ММ ...]
func (h *Handlers) HandleOpen(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	times, err := parseDateTimes(commandArgs(update.Message.Text), h.location)
	if err != nil {
		h.replyError(ctx, b, chatID, "open slots", err)
		return
	}

	res, err := h.batchService.OpenSlots(ctx, user.Caller(), times, h.now())
	if err != nil {
		h.replyError(ctx, b, chatID, "open slots", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Открыто %d %s:\n%s",
		len(res.Slots), formatting.PluralizeSlots(len(res.Slots)), h.slotList(res.Slots)))
}

// HandleClose обрабатывает команду /close <id> [id ...]
func (h *Handlers) HandleClose(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	ids, err := parseIDs(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "close slots", err)
		return
	}

	closed, err := h.batchService.CloseSlots(ctx, user.Caller(), ids)
	if err != nil {
		h.replyError(ctx, b, chatID, "close slots", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🗑 Закрыто %d %s.", closed, formatting.PluralizeSlots(closed)))
}

// HandleRegister обрабатывает команду /register @клиент ДД.ММ.ГГГГ ЧЧ:ММ [ЧЧ:ММ ...]
func (h *Handlers) HandleRegister(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 3 {
		h.replyError(ctx, b, chatID, "register slots", errBadArgs)
		return
	}

	trainee, err := h.resolveTrainee(ctx, args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, "register slots", err)
		return
	}

	times, err := parseDateTimes(args[1:], h.location)
	if err != nil {
		h.replyError(ctx, b, chatID, "register slots", err)
		return
	}

	res, err := h.batchService.RegisterSlots(ctx, user.Caller(), trainee.ID, times, h.now())
	if err != nil {
		h.replyError(ctx, b, chatID, "register slots", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ %s записан(а) на %d %s:\n%s\n\nОсталось на контракте: %d",
		trainee.DisplayName(),
		len(res.Slots), formatting.PluralizeSessions(len(res.Slots)),
		h.slotList(res.Slots),
		res.Ledger.Remaining()))
}

func (h *Handlers) slotList(slots []*model.SlotRecord) string {
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("#%d %s", slot.ID, h.slotTime(slot)))
	}
	return strings.Join(lines, "\n")
}
