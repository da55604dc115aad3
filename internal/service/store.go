package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
)

// SlotStore доступ к слотам внутри транзакции.
// Методы *ForUpdate блокируют строки до конца транзакции.
type SlotStore interface {
	GetForUpdate(ctx context.Context, id int64) (*model.SlotRecord, error)
	GetManyForUpdate(ctx context.Context, ids []int64) ([]*model.SlotRecord, error)
	FindByTrainerAndTimeRange(ctx context.Context, trainerID int64, from, to time.Time) ([]*model.SlotRecord, error)
	CreateMany(ctx context.Context, slots []*model.SlotRecord) error
	Update(ctx context.Context, slot *model.SlotRecord) error
	DeleteMany(ctx context.Context, ids []int64) error
	CountBookedByLedger(ctx context.Context, ledgerID int64) (int, error)
}

// LedgerStore доступ к контрактам внутри транзакции
type LedgerStore interface {
	GetForUpdate(ctx context.Context, id int64) (*model.SessionLedger, error)
	FindActiveForUpdate(ctx context.Context, trainerID, traineeID int64) (*model.SessionLedger, error)
	ListActive(ctx context.Context) ([]*model.SessionLedger, error)
	ListByTrainee(ctx context.Context, traineeID int64) ([]*model.SessionLedger, error)
	Create(ctx context.Context, ledger *model.SessionLedger) error
	Update(ctx context.Context, ledger *model.SessionLedger) error
}

// UnitOfWork набор хранилищ, привязанных к одной транзакции
type UnitOfWork interface {
	Slots() SlotStore
	Ledgers() LedgerStore
	// LockTrainer сериализует пакетные операции одного тренера
	LockTrainer(ctx context.Context, trainerID int64) error
}

// TxManager выполняет fn в одной транзакции; любая ошибка fn откатывает всё
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	// WithinSnapshot только чтение: все запросы fn видят один снимок данных
	WithinSnapshot(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// UserStore пользователи бота; отсутствие пользователя - nil, nil
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetUnread(ctx context.Context, userID int64, unread bool) error
}

// ScheduleReader читающая сторона для проекции расписания
type ScheduleReader interface {
	FindScheduleEntries(ctx context.Context, trainerID int64, from, to time.Time) ([]model.ScheduleEntry, error)
}

// NotificationDispatcher доставка уведомлений (best effort)
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, recipientID int64, title, body string, eventDate time.Time) error
}
