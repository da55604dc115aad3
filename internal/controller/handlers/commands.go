package handlers

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Для клиентов:\n" +
	"/schedule [@тренер] [ДД.ММ.ГГГГ] [дней] - Расписание тренера\n" +
	"/apply <id> - Подать заявку на слот\n" +
	"/cancel <id> - Отменить заявку или занятие (не позже чем за сутки)\n" +
	"/balance - Остаток занятий по контрактам\n\n" +
	"Для тренеров:\n" +
	"/becometrainer - Стать тренером\n" +
	"/schedule [ДД.ММ.ГГГГ] [дней] - Моё расписание\n" +
	"/open ДД.ММ.ГГГГ ЧЧ:ММ [ЧЧ:ММ ...] - Открыть слоты\n" +
	"/close <id> [id ...] - Закрыть свободные слоты\n" +
	"/accept <id> - Подтвердить заявку\n" +
	"/reject <id> - Отклонить заявку\n" +
	"/cancel <id> - Отменить заявку или занятие\n" +
	"/register @клиент ДД.ММ.ГГГГ ЧЧ:ММ [ЧЧ:ММ ...] - Записать клиента\n" +
	"/contract @клиент <занятий> - Новый контракт\n" +
	"/contract @клиент end - Закрыть контракт\n" +
	"/sessions @клиент <+N|-N> - Изменить количество занятий\n" +
	"/balance @клиент - Баланс контракта\n\n" +
	"Все слоты длятся один час."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
	)

	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это бот для записи на персональные тренировки.\n"+
			"Клиент подаёт заявку на свободный час тренера, тренер её подтверждает, "+
			"занятие списывается с вашего контракта.\n\n"+
			"Все команды: /help",
		registeredUser.FirstName,
	)

	if registeredUser.Role == model.RoleTrainer {
		welcomeText += "\n\nВы тренер. Расписание: /schedule"
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleBecomeTrainer обрабатывает команду /becometrainer
func (h *Handlers) HandleBecomeTrainer(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.Role == model.RoleTrainer {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Вы уже тренер.")
		return
	}

	if _, err := h.userService.MakeTrainer(ctx, user.TelegramID); err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "become trainer", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"🎉 Теперь вы тренер!\n\n"+
			"1. Заключите контракт с клиентом: /contract @клиент 10\n"+
			"2. Откройте слоты: /open 01.02.2025 10:00 11:00\n"+
			"3. Смотрите заявки: /schedule")
}
