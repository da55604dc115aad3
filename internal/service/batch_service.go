package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchResult результат пакетной операции
type BatchResult struct {
	BatchID uuid.UUID
	Slots   []*model.SlotRecord
	Ledger  *model.SessionLedger // только для RegisterSlots
}

type BatchService struct {
	tx       TxManager
	notifier NotificationDispatcher
	location *time.Location
	logger   *zap.Logger
}

func NewBatchService(
	tx TxManager,
	notifier NotificationDispatcher,
	location *time.Location,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		tx:       tx,
		notifier: notifier,
		location: location,
		logger:   logger,
	}
}

// OpenSlots создаёт свободные слоты. Если хотя бы одно время уже занято
// слотом тренера (в любом статусе), не создаётся ни один.
func (s *BatchService) OpenSlots(ctx context.Context, caller model.Caller, startTimes []time.Time, now time.Time) (*BatchResult, error) {
	if caller.Role != model.RoleTrainer {
		return nil, fmt.Errorf("open slots: %w", model.ErrForbidden)
	}

	times, err := normalizeTimes(startTimes, now)
	if err != nil {
		return nil, fmt.Errorf("open slots: %w", err)
	}

	batchID := uuid.New()
	var slots []*model.SlotRecord

	err = s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := uow.LockTrainer(ctx, caller.ID); err != nil {
			return fmt.Errorf("lock trainer: %w", err)
		}

		existing, err := findExisting(ctx, uow, caller.ID, times)
		if err != nil {
			return err
		}

		var collisions []time.Time
		for _, t := range times {
			if _, ok := existing[t.UnixNano()]; ok {
				collisions = append(collisions, t)
			}
		}
		if len(collisions) > 0 {
			return fmt.Errorf("%w: %s", model.ErrScheduleAlreadyExists, s.joinTimes(collisions))
		}

		slots = make([]*model.SlotRecord, 0, len(times))
		for _, t := range times {
			slots = append(slots, model.NewOpenSlot(caller.ID, t, batchID))
		}

		if err := uow.Slots().CreateMany(ctx, slots); err != nil {
			return fmt.Errorf("create slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open slots: %w", err)
	}

	s.logger.Info("Slots opened",
		zap.Int64("trainer_id", caller.ID),
		zap.String("batch_id", batchID.String()),
		zap.Int("count", len(slots)),
		zap.Time("first_start_at", times[0]),
	)

	return &BatchResult{BatchID: batchID, Slots: slots}, nil
}

// CloseSlots удаляет свободные слоты. Если хотя бы один слот не найден
// или не свободен, не удаляется ни один.
func (s *BatchService) CloseSlots(ctx context.Context, caller model.Caller, slotIDs []int64) (int, error) {
	if caller.Role != model.RoleTrainer {
		return 0, fmt.Errorf("close slots: %w", model.ErrForbidden)
	}

	ids := uniqueIDs(slotIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("close slots: %w", model.ErrEmptyRequest)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		// Та же блокировка, что у OpenSlots/RegisterSlots: строки слотов
		// тренера блокируются только под ней, в одном порядке
		if err := uow.LockTrainer(ctx, caller.ID); err != nil {
			return err
		}

		slots, err := uow.Slots().GetManyForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("get slots: %w", err)
		}

		found := make(map[int64]*model.SlotRecord, len(slots))
		for _, slot := range slots {
			found[slot.ID] = slot
		}

		var missing []string
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, fmt.Sprintf("%d", id))
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: ids %s", model.ErrScheduleNotFound, strings.Join(missing, ", "))
		}

		for _, id := range ids {
			slot := found[id]
			if slot.TrainerID != caller.ID {
				return fmt.Errorf("%w: schedule %d", model.ErrNotScheduleOwner, slot.ID)
			}
			if slot.Status != model.SlotOpen {
				return fmt.Errorf("%w: schedule %d is %s", model.ErrScheduleStatusNotOpen, slot.ID, slot.Status)
			}
		}

		if err := uow.Slots().DeleteMany(ctx, ids); err != nil {
			return fmt.Errorf("delete slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("close slots: %w", err)
	}

	s.logger.Info("Slots closed",
		zap.Int64("trainer_id", caller.ID),
		zap.Int64s("slot_ids", ids),
	)

	return len(ids), nil
}

// RegisterSlots тренер напрямую записывает клиента на слоты, минуя заявку.
// Вся пачка проверяется (контракт, баланс, статусы) до первой записи.
func (s *BatchService) RegisterSlots(ctx context.Context, caller model.Caller, traineeID int64, startTimes []time.Time, now time.Time) (*BatchResult, error) {
	if caller.Role != model.RoleTrainer {
		return nil, fmt.Errorf("register slots: %w", model.ErrForbidden)
	}

	times, err := normalizeTimes(startTimes, now)
	if err != nil {
		return nil, fmt.Errorf("register slots: %w", err)
	}

	batchID := uuid.New()
	var (
		created []*model.SlotRecord
		reused  []*model.SlotRecord
		ledger  *model.SessionLedger
	)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := uow.LockTrainer(ctx, caller.ID); err != nil {
			return fmt.Errorf("lock trainer: %w", err)
		}

		existing, err := findExisting(ctx, uow, caller.ID, times)
		if err != nil {
			return err
		}

		ledger, err = uow.Ledgers().FindActiveForUpdate(ctx, caller.ID, traineeID)
		if err != nil {
			return fmt.Errorf("find ledger: %w", err)
		}
		if ledger == nil {
			return fmt.Errorf("%w: trainer %d, trainee %d", model.ErrLedgerNotExists, caller.ID, traineeID)
		}

		var newTimes []time.Time
		for _, t := range times {
			if slot, ok := existing[t.UnixNano()]; ok {
				reused = append(reused, slot)
			} else {
				newTimes = append(newTimes, t)
			}
		}

		needed := len(newTimes) + len(reused)
		if needed > ledger.Remaining() {
			return model.NewSessionShortage(ledger.Remaining(), needed)
		}

		var busy []time.Time
		for _, slot := range reused {
			if slot.Status != model.SlotOpen {
				busy = append(busy, slot.StartAt)
			}
		}
		if len(busy) > 0 {
			return fmt.Errorf("%w: %s", model.ErrScheduleStatusNotOpen, s.joinTimes(busy))
		}

		// дальше ошибок валидации быть не может, только ошибки хранилища
		created = make([]*model.SlotRecord, 0, len(newTimes))
		for _, t := range newTimes {
			slot, err := model.NewReservedSlot(caller.ID, t, batchID, ledger)
			if err != nil {
				return err
			}
			created = append(created, slot)
		}
		for _, slot := range reused {
			if err := slot.Register(ledger); err != nil {
				return err
			}
		}

		if err := uow.Ledgers().Update(ctx, ledger); err != nil {
			return fmt.Errorf("update ledger: %w", err)
		}
		if len(created) > 0 {
			if err := uow.Slots().CreateMany(ctx, created); err != nil {
				return fmt.Errorf("create slots: %w", err)
			}
		}
		for _, slot := range reused {
			if err := uow.Slots().Update(ctx, slot); err != nil {
				return fmt.Errorf("update slot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register slots: %w", err)
	}

	all := append(append([]*model.SlotRecord{}, created...), reused...)
	sort.Slice(all, func(i, j int) bool { return all[i].StartAt.Before(all[j].StartAt) })

	s.logger.Info("Slots registered",
		zap.Int64("trainer_id", caller.ID),
		zap.Int64("trainee_id", traineeID),
		zap.String("batch_id", batchID.String()),
		zap.Int("created", len(created)),
		zap.Int("reused", len(reused)),
		zap.Int64("ledger_id", ledger.ID),
		zap.Int("used_session", ledger.UsedSession),
	)

	s.notifyRegistered(ctx, traineeID, created, all)

	return &BatchResult{BatchID: batchID, Slots: all, Ledger: ledger}, nil
}

// notifyRegistered одно уведомление на пачку: ближайшая новая дата и количество
func (s *BatchService) notifyRegistered(ctx context.Context, traineeID int64, created, all []*model.SlotRecord) {
	if len(all) == 0 {
		return
	}

	earliest := all[0].StartAt
	if len(created) > 0 {
		earliest = created[0].StartAt
		for _, slot := range created[1:] {
			if slot.StartAt.Before(earliest) {
				earliest = slot.StartAt
			}
		}
	}

	count := len(all)
	body := fmt.Sprintf("Тренер записал вас на %d %s, ближайшее %s",
		count, formatting.PluralizeSessions(count), formatting.FormatDateTime(earliest.In(s.location)))

	dispatch(ctx, s.notifier, s.logger, traineeID, "Запись на занятия", body, earliest)
}

func (s *BatchService) joinTimes(times []time.Time) string {
	parts := make([]string, 0, len(times))
	for _, t := range times {
		parts = append(parts, formatting.FormatDateTime(t.In(s.location)))
	}
	return strings.Join(parts, ", ")
}

// findExisting слоты тренера в диапазоне запроса, по времени начала
func findExisting(ctx context.Context, uow UnitOfWork, trainerID int64, times []time.Time) (map[int64]*model.SlotRecord, error) {
	from := times[0]
	to := times[len(times)-1].Add(model.SlotDuration)

	slots, err := uow.Slots().FindByTrainerAndTimeRange(ctx, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find existing slots: %w", err)
	}

	existing := make(map[int64]*model.SlotRecord, len(slots))
	for _, slot := range slots {
		existing[slot.StartAt.UnixNano()] = slot
	}
	return existing, nil
}

// normalizeTimes убирает дубликаты, сортирует и отсекает прошедшее время
func normalizeTimes(startTimes []time.Time, now time.Time) ([]time.Time, error) {
	seen := make(map[int64]struct{}, len(startTimes))
	times := make([]time.Time, 0, len(startTimes))
	for _, t := range startTimes {
		if _, ok := seen[t.UnixNano()]; ok {
			continue
		}
		seen[t.UnixNano()] = struct{}{}
		times = append(times, t)
	}

	if len(times) == 0 {
		return nil, model.ErrEmptyRequest
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	for _, t := range times {
		if err := RejectIfPast(t, now); err != nil {
			return nil, err
		}
	}
	return times, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
