package handlers

import (
	"context"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)

	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}

	if user == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	return user, true
}

// requireTrainer проверяет что пользователь является тренером
func (h *Handlers) requireTrainer(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if user.Role != model.RoleTrainer {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только тренерам.\n\nСтать тренером: /becometrainer")
		return nil, false
	}

	return user, true
}

// requireTrainee проверяет что пользователь является клиентом
func (h *Handlers) requireTrainee(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if user.Role != model.RoleTrainee {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Эта команда доступна только клиентам.")
		return nil, false
	}

	return user, true
}

// resolveTrainee находит клиента по @username из аргумента команды
func (h *Handlers) resolveTrainee(ctx context.Context, username string) (*model.User, error) {
	if !isUsername(username) {
		return nil, errBadArgs
	}
	return h.userService.FindByUsername(ctx, username)
}

// markRead пользователь открыл расписание или баланс, уведомления прочитаны
func (h *Handlers) markRead(ctx context.Context, user *model.User) {
	if !user.HasUnread {
		return
	}
	if err := h.userService.MarkRead(ctx, user.ID); err != nil {
		h.logger.Warn("Failed to mark notifications read", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// replyError отвечает текстом ошибки; сбои логируются как Error, ошибки запроса как Info
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	if isUserError(err) {
		h.logger.Info("Request rejected",
			zap.String("op", op),
			zap.Int64("chat_id", chatID),
			zap.String("kind", model.KindOf(err).String()),
			zap.Error(err),
		)
	} else {
		h.logger.Error("Operation failed",
			zap.String("op", op),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	h.sendError(ctx, b, chatID, userMessage(err))
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendHTML отправляет HTML-сообщение с необязательной клавиатурой
func (h *Handlers) sendHTML(ctx context.Context, b *bot.Bot, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
