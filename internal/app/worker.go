package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/notify"
	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotificationWorker воркер asynq, доставляющий уведомления из очереди
type NotificationWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewNotificationWorker(redisOpt asynq.RedisClientOpt, delivery service.NotificationDispatcher, logger *zap.Logger) *NotificationWorker {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notify.TypeDispatchNotification, notify.NewTaskHandler(delivery, logger))

	return &NotificationWorker{
		server: server,
		mux:    mux,
		logger: logger,
	}
}

// Run запускает воркер и останавливает его по отмене ctx
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.logger.Info("Starting notification worker")

	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("Notification worker stopped")
	return nil
}
