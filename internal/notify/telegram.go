package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MessageSender часть *bot.Bot, которая нужна для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserDirectory поиск получателя и отметка о непрочитанном
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetUnread(ctx context.Context, userID int64, unread bool) error
}

// TelegramDispatcher отправляет уведомление сообщением в личный чат.
// Telegram ограничивает ботов примерно 30 сообщениями в секунду, поэтому отправка идёт через limiter.
type TelegramDispatcher struct {
	sender   MessageSender
	users    UserDirectory
	limiter  *rate.Limiter
	location *time.Location
	logger   *zap.Logger
}

func NewTelegramDispatcher(
	sender MessageSender,
	users UserDirectory,
	ratePerSec float64,
	location *time.Location,
	logger *zap.Logger,
) *TelegramDispatcher {
	return &TelegramDispatcher{
		sender:   sender,
		users:    users,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		location: location,
		logger:   logger,
	}
}

// Dispatch помечает у получателя непрочитанное и отправляет сообщение
func (d *TelegramDispatcher) Dispatch(ctx context.Context, recipientID int64, title, body string, eventDate time.Time) error {
	user, err := d.users.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: id %d", model.ErrUserNotFound, recipientID)
	}

	if err := d.users.SetUnread(ctx, user.ID, true); err != nil {
		return fmt.Errorf("mark unread: %w", err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait rate limit: %w", err)
	}

	_, err = d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    user.TelegramID,
		Text:      d.render(title, body, eventDate),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	d.logger.Debug("Notification sent",
		zap.Int64("recipient_id", recipientID),
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("title", title),
	)

	return nil
}

func (d *TelegramDispatcher) render(title, body string, eventDate time.Time) string {
	text := fmt.Sprintf("🔔 <b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(body))
	if !eventDate.IsZero() {
		text += "\n\n📅 " + formatting.FormatDateWithWeekday(eventDate.In(d.location))
	}
	return text
}
