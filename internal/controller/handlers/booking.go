package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type requireFunc func(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool)

// slotCommand разбирает "/cmd <id>" и проверяет роль пользователя
func (h *Handlers) slotCommand(ctx context.Context, b *bot.Bot, update *models.Update, op string, require requireFunc) (*model.User, int64, bool) {
	user, ok := require(ctx, b, update)
	if !ok {
		return nil, 0, false
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.replyError(ctx, b, update.Message.Chat.ID, op, errBadArgs)
		return nil, 0, false
	}

	slotID, err := parseID(args[0])
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, op, err)
		return nil, 0, false
	}

	return user, slotID, true
}

// HandleApply обрабатывает команду /apply <id>
func (h *Handlers) HandleApply(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, slotID, ok := h.slotCommand(ctx, b, update, "apply", h.requireTrainee)
	if !ok {
		return
	}
	text, err := h.apply(ctx, user, slotID)
	h.reply(ctx, b, update.Message.Chat.ID, "apply", text, err)
}

// HandleAccept обрабатывает команду /accept <id>
func (h *Handlers) HandleAccept(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, slotID, ok := h.slotCommand(ctx, b, update, "accept", h.requireTrainer)
	if !ok {
		return
	}
	text, err := h.accept(ctx, user, slotID)
	h.reply(ctx, b, update.Message.Chat.ID, "accept", text, err)
}

// HandleReject обрабатывает команду /reject <id>
func (h *Handlers) HandleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, slotID, ok := h.slotCommand(ctx, b, update, "reject", h.requireTrainer)
	if !ok {
		return
	}
	text, err := h.reject(ctx, user, slotID)
	h.reply(ctx, b, update.Message.Chat.ID, "reject", text, err)
}

// HandleCancel обрабатывает команду /cancel <id>: тренер отменяет без ограничений, клиент - не позже чем за сутки
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, slotID, ok := h.slotCommand(ctx, b, update, "cancel", h.requireUser)
	if !ok {
		return
	}

	var (
		res *service.BookingResult
		err error
	)
	if user.Role == model.RoleTrainer {
		res, err = h.bookingService.CancelByTrainer(ctx, user.Caller(), slotID)
	} else {
		res, err = h.bookingService.CancelByTrainee(ctx, user.Caller(), slotID, h.now())
	}
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "cancel", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"✅ Запись на %s отменена. Занятие возвращено на контракт, осталось %d %s.",
		h.slotTime(res.Slot), res.Ledger.Remaining(), formatting.PluralizeSessions(res.Ledger.Remaining())))
}

func (h *Handlers) apply(ctx context.Context, user *model.User, slotID int64) (string, error) {
	res, err := h.bookingService.Apply(ctx, user.Caller(), slotID, h.now())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📝 Заявка на %s отправлена тренеру. Осталось %d %s.",
		h.slotTime(res.Slot), res.Ledger.Remaining(), formatting.PluralizeSessions(res.Ledger.Remaining())), nil
}

func (h *Handlers) accept(ctx context.Context, user *model.User, slotID int64) (string, error) {
	res, err := h.bookingService.Accept(ctx, user.Caller(), slotID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Занятие %s подтверждено.", h.slotTime(res.Slot)), nil
}

func (h *Handlers) reject(ctx context.Context, user *model.User, slotID int64) (string, error) {
	res, err := h.bookingService.Reject(ctx, user.Caller(), slotID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("↩️ Заявка на %s отклонена, слот снова свободен.", h.slotTime(res.Slot)), nil
}

func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, op, text string, err error) {
	if err != nil {
		h.replyError(ctx, b, chatID, op, err)
		return
	}
	h.sendMessage(ctx, b, chatID, text)
}

func (h *Handlers) slotTime(slot *model.SlotRecord) string {
	return formatting.FormatDateTime(slot.StartAt.In(h.location))
}
