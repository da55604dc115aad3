package controller

import (
	"context"

	"github.com/Freeeeeet/pt_scheduler/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	cmdHandlers *handlers.Handlers,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Общие команды
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becometrainer", bot.MatchTypeExact, c.handlers.HandleBecomeTrainer)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/schedule", bot.MatchTypePrefix, c.handlers.HandleSchedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypePrefix, c.handlers.HandleBalance)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, c.handlers.HandleCancel)

	// Команды клиента
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/apply", bot.MatchTypePrefix, c.handlers.HandleApply)

	// Команды тренера
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/accept", bot.MatchTypePrefix, c.handlers.HandleAccept)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reject", bot.MatchTypePrefix, c.handlers.HandleReject)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/open", bot.MatchTypePrefix, c.handlers.HandleOpen)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/close", bot.MatchTypePrefix, c.handlers.HandleClose)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/register", bot.MatchTypePrefix, c.handlers.HandleRegister)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/contract", bot.MatchTypePrefix, c.handlers.HandleContract)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/sessions", bot.MatchTypePrefix, c.handlers.HandleSessions)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "schedule", Description: "🗓 Расписание"},
		{Command: "balance", Description: "📒 Остаток занятий"},
		{Command: "apply", Description: "📝 Записаться на слот"},
		{Command: "cancel", Description: "↩️ Отменить запись"},
		{Command: "becometrainer", Description: "🏋️ Стать тренером"},
		{Command: "open", Description: "➕ Открыть слоты (тренер)"},
		{Command: "close", Description: "🗑 Закрыть слоты (тренер)"},
		{Command: "accept", Description: "✅ Подтвердить заявку (тренер)"},
		{Command: "reject", Description: "❌ Отклонить заявку (тренер)"},
		{Command: "register", Description: "👤 Записать клиента (тренер)"},
		{Command: "contract", Description: "📄 Контракт с клиентом (тренер)"},
		{Command: "sessions", Description: "🔢 Изменить число занятий (тренер)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
