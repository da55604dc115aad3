package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/pt_scheduler/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery роутер нажатий на кнопки под расписанием
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	h.logger.Debug("Callback query received",
		zap.Int64("telegram_id", callback.From.ID),
		zap.String("data", callback.Data),
	)

	user, err := h.userService.GetByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil {
		h.answerCallback(ctx, b, callback.ID, "❌ Пользователь не найден. Используйте /start", true)
		return
	}

	action, rest := splitCallback(callback.Data)
	slotID, err := parseID(rest)
	if err != nil {
		h.answerCallback(ctx, b, callback.ID, userMessage(err), true)
		return
	}

	var text string
	switch action {
	case keyboard.ApplySlot:
		text, err = h.apply(ctx, user, slotID)
	case keyboard.AcceptSlot:
		text, err = h.accept(ctx, user, slotID)
	case keyboard.RejectSlot:
		text, err = h.reject(ctx, user, slotID)
	default:
		h.logger.Warn("Unknown callback data", zap.String("data", callback.Data))
		h.answerCallback(ctx, b, callback.ID, "❌ Неизвестное действие", true)
		return
	}

	if err != nil {
		if !isUserError(err) {
			h.logger.Error("Callback action failed", zap.String("data", callback.Data), zap.Error(err))
		}
		h.answerCallback(ctx, b, callback.ID, userMessage(err), true)
		return
	}

	h.answerCallback(ctx, b, callback.ID, text, false)
	if callback.Message.Message != nil {
		h.sendMessage(ctx, b, callback.Message.Message.Chat.ID, text)
	}
}

// splitCallback "accept:12" -> ("accept:", "12")
func splitCallback(data string) (string, string) {
	i := strings.Index(data, ":")
	if i < 0 {
		return data, ""
	}
	return data[:i+1], data[i+1:]
}

func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Error("Failed to answer callback", zap.String("callback_id", callbackID), zap.Error(err))
	}
}
