package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"go.uber.org/zap"
)

// Auditor сверка контрактов со слотами
type Auditor interface {
	Audit(ctx context.Context) ([]service.LedgerDrift, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	auditor  Auditor
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(auditor Auditor, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		auditor:  auditor,
		interval: interval,
		logger:   logger,
	}
}

// Run выполняет сверку сразу и затем по таймеру, пока не отменён ctx
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.Duration("audit_interval", s.interval))

	// Первый запуск сразу при старте
	s.runAudit(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runAudit(ctx)
		case <-ctx.Done():
			s.logger.Info("Ledger audit task stopped")
			return nil
		}
	}
}

func (s *Scheduler) runAudit(ctx context.Context) {
	drifts, err := s.auditor.Audit(ctx)
	if err != nil {
		s.logger.Error("Failed to audit session ledgers", zap.Error(err))
		return
	}
	if len(drifts) > 0 {
		s.logger.Warn("Session ledgers need attention", zap.Int("drifted", len(drifts)))
	}
}
