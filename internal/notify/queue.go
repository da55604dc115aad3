package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeDispatchNotification тип задачи asynq для отложенной доставки уведомления
const TypeDispatchNotification = "notification:dispatch"

const maxDispatchRetry = 5

type notificationPayload struct {
	RecipientID int64     `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	EventDate   time.Time `json:"event_date"`
}

// Enqueuer часть *asynq.Client, которая нужна диспетчеру
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher кладёт уведомление в очередь Redis; доставляет воркер через NewTaskHandler
type QueueDispatcher struct {
	client Enqueuer
	logger *zap.Logger
}

func NewQueueDispatcher(client Enqueuer, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{
		client: client,
		logger: logger,
	}
}

// NewNotificationTask собирает задачу с уникальным id
func NewNotificationTask(recipientID int64, title, body string, eventDate time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(notificationPayload{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		EventDate:   eventDate,
	})
	if err != nil {
		return nil, nil, err
	}

	task := asynq.NewTask(TypeDispatchNotification, b)
	opts := []asynq.Option{
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(maxDispatchRetry),
	}

	return task, opts, nil
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, recipientID int64, title, body string, eventDate time.Time) error {
	task, opts, err := NewNotificationTask(recipientID, title, body, eventDate)
	if err != nil {
		return fmt.Errorf("build notification task: %w", err)
	}

	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	d.logger.Debug("Notification enqueued",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
		zap.Int64("recipient_id", recipientID),
	)

	return nil
}

// NewTaskHandler обработчик задач уведомлений для asynq.ServeMux
func NewTaskHandler(dispatcher service.NotificationDispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p notificationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		if err := dispatcher.Dispatch(ctx, p.RecipientID, p.Title, p.Body, p.EventDate); err != nil {
			logger.Warn("Failed to deliver queued notification",
				zap.Int64("recipient_id", p.RecipientID),
				zap.Error(err),
			)
			return err
		}

		return nil
	}
}
