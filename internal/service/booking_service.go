package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"go.uber.org/zap"
)

// BookingResult состояние слота и контракта после операции
type BookingResult struct {
	Slot   *model.SlotRecord
	Ledger *model.SessionLedger
}

type BookingService struct {
	tx       TxManager
	notifier NotificationDispatcher
	location *time.Location
	logger   *zap.Logger
}

func NewBookingService(
	tx TxManager,
	notifier NotificationDispatcher,
	location *time.Location,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:       tx,
		notifier: notifier,
		location: location,
		logger:   logger,
	}
}

// Apply клиент подаёт заявку на свободный слот
func (s *BookingService) Apply(ctx context.Context, caller model.Caller, slotID int64, now time.Time) (*BookingResult, error) {
	if caller.Role != model.RoleTrainee {
		return nil, fmt.Errorf("apply: %w", model.ErrForbidden)
	}

	var res BookingResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		slot, err := loadSlot(ctx, uow, slotID)
		if err != nil {
			return err
		}

		if err := RejectIfPast(slot.StartAt, now); err != nil {
			return err
		}
		if err := RejectIfTooSoon(slot.StartAt, now); err != nil {
			return err
		}

		if slot.Status != model.SlotOpen {
			return fmt.Errorf("%w: schedule %d is %s", model.ErrScheduleStatusNotOpen, slot.ID, slot.Status)
		}

		ledger, err := uow.Ledgers().FindActiveForUpdate(ctx, slot.TrainerID, caller.ID)
		if err != nil {
			return fmt.Errorf("find ledger: %w", err)
		}
		if ledger == nil {
			return fmt.Errorf("%w: trainer %d, trainee %d", model.ErrLedgerNotFound, slot.TrainerID, caller.ID)
		}

		if err := slot.Apply(ledger); err != nil {
			return err
		}

		if err := saveLedgerThenSlot(ctx, uow, ledger, slot); err != nil {
			return err
		}

		res = BookingResult{Slot: slot, Ledger: ledger}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply schedule %d: %w", slotID, err)
	}

	s.logger.Info("Schedule applied",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainee_id", caller.ID),
		zap.Int64("ledger_id", res.Ledger.ID),
		zap.Int("used_session", res.Ledger.UsedSession),
	)

	s.notify(ctx, res.Slot.TrainerID, "Новая заявка",
		fmt.Sprintf("Клиент записался на %s, ожидает подтверждения", s.formatTime(res.Slot.StartAt)),
		res.Slot.StartAt)

	return &res, nil
}

// Accept тренер подтверждает заявку
func (s *BookingService) Accept(ctx context.Context, caller model.Caller, slotID int64) (*BookingResult, error) {
	res, err := s.withSlotLedger(ctx, caller, slotID, model.ErrInvalidScheduleStatus, func(slot *model.SlotRecord, ledger *model.SessionLedger) error {
		if slot.Status != model.SlotApplied {
			return fmt.Errorf("%w: accept schedule %d in %s", model.ErrInvalidScheduleStatus, slot.ID, slot.Status)
		}
		return slot.Accept(ledger)
	})
	if err != nil {
		return nil, fmt.Errorf("accept schedule %d: %w", slotID, err)
	}

	s.logger.Info("Schedule accepted",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("ledger_id", res.Ledger.ID),
		zap.Int("used_session", res.Ledger.UsedSession),
	)

	s.notify(ctx, res.Ledger.TraineeID, "Заявка подтверждена",
		fmt.Sprintf("Занятие %s подтверждено", s.formatTime(res.Slot.StartAt)),
		res.Slot.StartAt)

	return res, nil
}

// Reject тренер отклоняет заявку, занятие возвращается на контракт
func (s *BookingService) Reject(ctx context.Context, caller model.Caller, slotID int64) (*BookingResult, error) {
	var traineeID int64
	res, err := s.withSlotLedger(ctx, caller, slotID, model.ErrInvalidScheduleStatus, func(slot *model.SlotRecord, ledger *model.SessionLedger) error {
		traineeID = ledger.TraineeID
		clamped, err := slot.Reject(ledger)
		if err != nil {
			return err
		}
		s.logClamp(clamped, ledger, slot)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reject schedule %d: %w", slotID, err)
	}

	s.logger.Info("Schedule rejected",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("ledger_id", res.Ledger.ID),
		zap.Int("used_session", res.Ledger.UsedSession),
	)

	s.notify(ctx, traineeID, "Заявка отклонена",
		fmt.Sprintf("Тренер отклонил заявку на %s", s.formatTime(res.Slot.StartAt)),
		res.Slot.StartAt)

	return res, nil
}

// CancelByTrainer тренер отменяет заявку или занятие без ограничений по времени
func (s *BookingService) CancelByTrainer(ctx context.Context, caller model.Caller, slotID int64) (*BookingResult, error) {
	var traineeID int64
	res, err := s.withSlotLedger(ctx, caller, slotID, model.ErrScheduleStatusNotCancellable, func(slot *model.SlotRecord, ledger *model.SessionLedger) error {
		traineeID = ledger.TraineeID
		clamped, err := slot.Cancel(ledger)
		if err != nil {
			return err
		}
		s.logClamp(clamped, ledger, slot)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel schedule %d by trainer: %w", slotID, err)
	}

	s.logger.Info("Schedule cancelled by trainer",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("ledger_id", res.Ledger.ID),
		zap.Int("used_session", res.Ledger.UsedSession),
	)

	s.notify(ctx, traineeID, "Занятие отменено",
		fmt.Sprintf("Тренер отменил занятие %s, занятие возвращено на баланс", s.formatTime(res.Slot.StartAt)),
		res.Slot.StartAt)

	return res, nil
}

// CancelByTrainee клиент отменяет свою заявку или подтверждённое занятие (не позже чем за сутки)
func (s *BookingService) CancelByTrainee(ctx context.Context, caller model.Caller, slotID int64, now time.Time) (*BookingResult, error) {
	if caller.Role != model.RoleTrainee {
		return nil, fmt.Errorf("cancel schedule %d by trainee: %w", slotID, model.ErrForbidden)
	}

	var res BookingResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		slot, err := loadSlot(ctx, uow, slotID)
		if err != nil {
			return err
		}

		if !slot.Status.IsBooked() {
			return fmt.Errorf("%w: schedule %d is %s", model.ErrScheduleStatusNotCancellable, slot.ID, slot.Status)
		}

		ledger, err := loadSlotLedger(ctx, uow, slot)
		if err != nil {
			return err
		}
		if ledger.TraineeID != caller.ID {
			return fmt.Errorf("%w: schedule %d", model.ErrNotScheduleOwner, slot.ID)
		}

		if slot.Status == model.SlotReserved {
			if err := RejectIfWithin24h(slot.StartAt, now); err != nil {
				return err
			}
		}

		clamped, err := slot.Cancel(ledger)
		if err != nil {
			return err
		}
		s.logClamp(clamped, ledger, slot)

		if err := saveLedgerThenSlot(ctx, uow, ledger, slot); err != nil {
			return err
		}

		res = BookingResult{Slot: slot, Ledger: ledger}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel schedule %d by trainee: %w", slotID, err)
	}

	s.logger.Info("Schedule cancelled by trainee",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainee_id", caller.ID),
		zap.Int64("ledger_id", res.Ledger.ID),
		zap.Int("used_session", res.Ledger.UsedSession),
	)

	s.notify(ctx, res.Ledger.TrainerID, "Клиент отменил запись",
		fmt.Sprintf("Слот %s снова свободен", s.formatTime(res.Slot.StartAt)),
		res.Slot.StartAt)

	return &res, nil
}

// withSlotLedger общий каркас тренерских операций над одним слотом и его контрактом.
// openErr возвращается, если слот свободен и контракта у него нет.
func (s *BookingService) withSlotLedger(
	ctx context.Context,
	caller model.Caller,
	slotID int64,
	openErr error,
	mutate func(slot *model.SlotRecord, ledger *model.SessionLedger) error,
) (*BookingResult, error) {
	if caller.Role != model.RoleTrainer {
		return nil, model.ErrForbidden
	}

	var res BookingResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		slot, err := loadSlot(ctx, uow, slotID)
		if err != nil {
			return err
		}
		if slot.TrainerID != caller.ID {
			return fmt.Errorf("%w: schedule %d", model.ErrNotScheduleOwner, slot.ID)
		}

		if !slot.Status.IsBooked() {
			return fmt.Errorf("%w: schedule %d is %s", openErr, slot.ID, slot.Status)
		}

		ledger, err := loadSlotLedger(ctx, uow, slot)
		if err != nil {
			return err
		}

		if err := mutate(slot, ledger); err != nil {
			return err
		}

		if err := saveLedgerThenSlot(ctx, uow, ledger, slot); err != nil {
			return err
		}

		res = BookingResult{Slot: slot, Ledger: ledger}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *BookingService) logClamp(clamped bool, ledger *model.SessionLedger, slot *model.SlotRecord) {
	if !clamped {
		return
	}
	s.logger.Warn("Session ledger inconsistency: restore below zero clamped",
		zap.Int64("ledger_id", ledger.ID),
		zap.Int64("slot_id", slot.ID),
	)
}

func (s *BookingService) notify(ctx context.Context, recipientID int64, title, body string, eventDate time.Time) {
	dispatch(ctx, s.notifier, s.logger, recipientID, title, body, eventDate)
}

func (s *BookingService) formatTime(t time.Time) string {
	return t.In(s.location).Format("02.01.2006 15:04")
}

// loadSlot блокирует слот; отсутствие слота - ErrScheduleNotFound
func loadSlot(ctx context.Context, uow UnitOfWork, slotID int64) (*model.SlotRecord, error) {
	slot, err := uow.Slots().GetForUpdate(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: id %d", model.ErrScheduleNotFound, slotID)
	}
	return slot, nil
}

// loadSlotLedger блокирует контракт, под который забронирован слот
func loadSlotLedger(ctx context.Context, uow UnitOfWork, slot *model.SlotRecord) (*model.SessionLedger, error) {
	if slot.LedgerID == nil {
		return nil, fmt.Errorf("%w: schedule %d has no ledger", model.ErrLedgerNotFound, slot.ID)
	}
	ledger, err := uow.Ledgers().GetForUpdate(ctx, *slot.LedgerID)
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: id %d", model.ErrLedgerNotFound, *slot.LedgerID)
	}
	return ledger, nil
}

// saveLedgerThenSlot порядок записи важен: сначала контракт, потом слот
func saveLedgerThenSlot(ctx context.Context, uow UnitOfWork, ledger *model.SessionLedger, slot *model.SlotRecord) error {
	if err := uow.Ledgers().Update(ctx, ledger); err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	if err := uow.Slots().Update(ctx, slot); err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	return nil
}

// dispatch отправляет уведомление; ошибки только логируются
func dispatch(ctx context.Context, notifier NotificationDispatcher, logger *zap.Logger, recipientID int64, title, body string, eventDate time.Time) {
	if notifier == nil {
		return
	}
	if err := notifier.Dispatch(ctx, recipientID, title, body, eventDate); err != nil {
		logger.Warn("Failed to dispatch notification",
			zap.Int64("recipient_id", recipientID),
			zap.String("title", title),
			zap.Error(err),
		)
	}
}
