package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"go.uber.org/zap"
)

// LedgerDrift расхождение счётчика контракта с фактическими слотами
type LedgerDrift struct {
	LedgerID    int64
	UsedSession int
	BookedSlots int
}

type LedgerService struct {
	tx     TxManager
	logger *zap.Logger
}

func NewLedgerService(tx TxManager, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		tx:     tx,
		logger: logger,
	}
}

// CreateLedger открывает контракт тренера с клиентом
func (s *LedgerService) CreateLedger(ctx context.Context, caller model.Caller, traineeID int64, total int) (*model.SessionLedger, error) {
	if caller.Role != model.RoleTrainer {
		return nil, fmt.Errorf("create ledger: %w", model.ErrForbidden)
	}

	ledger, err := model.NewSessionLedger(caller.ID, traineeID, total)
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		existing, err := uow.Ledgers().FindActiveForUpdate(ctx, caller.ID, traineeID)
		if err != nil {
			return fmt.Errorf("find ledger: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: ledger %d", model.ErrLedgerAlreadyExists, existing.ID)
		}
		return uow.Ledgers().Create(ctx, ledger)
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	s.logger.Info("Session ledger created",
		zap.Int64("ledger_id", ledger.ID),
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("trainee_id", traineeID),
		zap.Int("total_session", total),
	)

	return ledger, nil
}

// AdjustCapacity меняет общее число занятий; уменьшать можно до уже использованных
func (s *LedgerService) AdjustCapacity(ctx context.Context, caller model.Caller, traineeID int64, delta int) (*model.SessionLedger, error) {
	if caller.Role != model.RoleTrainer {
		return nil, fmt.Errorf("adjust capacity: %w", model.ErrForbidden)
	}

	var ledger *model.SessionLedger
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		ledger, err = findActive(ctx, uow, caller.ID, traineeID)
		if err != nil {
			return err
		}
		if err := ledger.AddCapacity(delta); err != nil {
			return err
		}
		return uow.Ledgers().Update(ctx, ledger)
	})
	if err != nil {
		return nil, fmt.Errorf("adjust capacity: %w", err)
	}

	s.logger.Info("Session ledger capacity adjusted",
		zap.Int64("ledger_id", ledger.ID),
		zap.Int("delta", delta),
		zap.Int("total_session", ledger.TotalSession),
		zap.Int("used_session", ledger.UsedSession),
	)

	return ledger, nil
}

// Terminate закрывает контракт; запись остаётся, на неё могут ссылаться слоты
func (s *LedgerService) Terminate(ctx context.Context, caller model.Caller, traineeID int64) (*model.SessionLedger, error) {
	if caller.Role != model.RoleTrainer {
		return nil, fmt.Errorf("terminate ledger: %w", model.ErrForbidden)
	}

	var ledger *model.SessionLedger
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		ledger, err = findActive(ctx, uow, caller.ID, traineeID)
		if err != nil {
			return err
		}
		ledger.Terminated = true
		return uow.Ledgers().Update(ctx, ledger)
	})
	if err != nil {
		return nil, fmt.Errorf("terminate ledger: %w", err)
	}

	s.logger.Info("Session ledger terminated",
		zap.Int64("ledger_id", ledger.ID),
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("trainee_id", traineeID),
	)

	return ledger, nil
}

// GetActive действующий контракт пары тренер-клиент
func (s *LedgerService) GetActive(ctx context.Context, trainerID, traineeID int64) (*model.SessionLedger, error) {
	var ledger *model.SessionLedger
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		ledger, err = findActive(ctx, uow, trainerID, traineeID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

// ListForTrainee действующие контракты клиента со всеми тренерами
func (s *LedgerService) ListForTrainee(ctx context.Context, traineeID int64) ([]*model.SessionLedger, error) {
	var ledgers []*model.SessionLedger
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		ledgers, err = uow.Ledgers().ListByTrainee(ctx, traineeID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list trainee ledgers: %w", err)
	}
	return ledgers, nil
}

// Audit сверяет used_session каждого действующего контракта с числом
// забронированных под него слотов. Ничего не исправляет, только сообщает.
func (s *LedgerService) Audit(ctx context.Context) ([]LedgerDrift, error) {
	var drifts []LedgerDrift
	checked := 0

	// Контракты и слоты читаются из одного снимка, иначе запись,
	// закоммиченная между запросами, выглядела бы как расхождение
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context, uow UnitOfWork) error {
		ledgers, err := uow.Ledgers().ListActive(ctx)
		if err != nil {
			return fmt.Errorf("list ledgers: %w", err)
		}
		checked = len(ledgers)

		for _, ledger := range ledgers {
			booked, err := uow.Slots().CountBookedByLedger(ctx, ledger.ID)
			if err != nil {
				return fmt.Errorf("count slots for ledger %d: %w", ledger.ID, err)
			}
			if booked != ledger.UsedSession || !ledger.WithinCapacity() {
				drifts = append(drifts, LedgerDrift{
					LedgerID:    ledger.ID,
					UsedSession: ledger.UsedSession,
					BookedSlots: booked,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit ledgers: %w", err)
	}

	for _, d := range drifts {
		s.logger.Warn("Session ledger drift detected",
			zap.Int64("ledger_id", d.LedgerID),
			zap.Int("used_session", d.UsedSession),
			zap.Int("booked_slots", d.BookedSlots),
		)
	}

	s.logger.Info("Session ledger audit completed",
		zap.Int("checked", checked),
		zap.Int("drifted", len(drifts)),
	)

	return drifts, nil
}

func findActive(ctx context.Context, uow UnitOfWork, trainerID, traineeID int64) (*model.SessionLedger, error) {
	ledger, err := uow.Ledgers().FindActiveForUpdate(ctx, trainerID, traineeID)
	if err != nil {
		return nil, fmt.Errorf("find ledger: %w", err)
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: trainer %d, trainee %d", model.ErrLedgerNotFound, trainerID, traineeID)
	}
	return ledger, nil
}
