package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/pt_scheduler/internal/app"
	"github.com/Freeeeeet/pt_scheduler/internal/config"
	"github.com/Freeeeeet/pt_scheduler/internal/controller"
	"github.com/Freeeeeet/pt_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/pt_scheduler/internal/notify"
	"github.com/Freeeeeet/pt_scheduler/internal/repository"
	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Telegram bot for personal trainer scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAuditCmd())
	return root
}

// env общие зависимости всех команд
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Environment)

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("✅ Connected to database")
	return &env{cfg: cfg, logger: logger, pool: pool}, nil
}

func (e *env) close() {
	e.pool.Close()
	_ = e.logger.Sync()
}

func (e *env) migrate(ctx context.Context, status bool) error {
	migrator, err := app.NewMigrator(e.pool, e.cfg.MigrationsDir, e.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if status {
		return migrator.Status(ctx)
	}
	return migrator.Run(ctx)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and run the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			return serve(ctx, e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, logger := e.cfg, e.logger

	logger.Sugar().Infow("Starting pt scheduler bot",
		"environment", cfg.Environment,
		"timezone", cfg.Timezone,
		"queue", cfg.QueueEnabled())

	if err := e.migrate(ctx, false); err != nil {
		return err
	}

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	// Репозитории
	txManager := repository.NewTxManager(e.pool)
	userRepo := repository.NewUserRepository(e.pool)
	scheduleRepo := repository.NewScheduleRepository(e.pool)

	telegramBot, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Уведомления: напрямую в Telegram или через очередь asynq
	direct := notify.NewTelegramDispatcher(telegramBot, userRepo, cfg.NotifyRatePerSec, location, logger)
	var dispatcher service.NotificationDispatcher = direct

	if cfg.QueueEnabled() {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}

		client := asynq.NewClient(redisOpt)
		defer client.Close()

		dispatcher = notify.NewQueueDispatcher(client, logger)
		worker := app.NewNotificationWorker(redisOpt, direct, logger)
		g.Go(func() error { return worker.Run(ctx) })
	}

	// Сервисы
	userService := service.NewUserService(userRepo, logger)
	bookingService := service.NewBookingService(txManager, dispatcher, location, logger)
	batchService := service.NewBatchService(txManager, dispatcher, location, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, location, logger)
	ledgerService := service.NewLedgerService(txManager, logger)

	// Контроллер
	cmdHandlers := handlers.NewHandlers(userService, bookingService, batchService, scheduleService, ledgerService, location, logger)
	botController := controller.NewBotController(telegramBot, cmdHandlers, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	scheduler := app.NewScheduler(ledgerService, cfg.AuditInterval, logger)
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return botController.Start(ctx) })

	logger.Info("🚀 Bot is running")

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Bot stopped")
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status]",
		Short:     "Apply migrations or print their status",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			if action != "up" && action != "status" {
				return fmt.Errorf("unknown migrate action %q", action)
			}

			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			return e.migrate(cmd.Context(), action == "status")
		},
	}
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Compare session ledgers with booked slots once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			ledgerService := service.NewLedgerService(repository.NewTxManager(e.pool), e.logger)
			drifts, err := ledgerService.Audit(cmd.Context())
			if err != nil {
				return err
			}

			for _, d := range drifts {
				fmt.Fprintf(cmd.OutOrStdout(), "ledger %d: used_session=%d booked_slots=%d\n", d.LedgerID, d.UsedSession, d.BookedSlots)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d ledger(s) drifted\n", len(drifts))
			return nil
		},
	}
}
