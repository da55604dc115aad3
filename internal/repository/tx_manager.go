package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"github.com/jackc/pgx/v5"
)

var (
	_ service.TxManager      = (*TxManager)(nil)
	_ service.SlotStore      = (*SlotRepository)(nil)
	_ service.LedgerStore    = (*LedgerRepository)(nil)
	_ service.ScheduleReader = (*ScheduleRepository)(nil)
	_ service.UserStore      = (*UserRepository)(nil)
)

// TxBeginner часть *pgxpool.Pool, которая открывает транзакции
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var (
	writeTxOptions    = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	snapshotTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// TxManager открывает транзакцию на пуле и выдаёт репозитории, привязанные к ней
type TxManager struct {
	pool TxBeginner
}

func NewTxManager(pool TxBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx выполняет fn в транзакции READ COMMITTED.
// Конкурентные изменения сериализуются блокировками строк (FOR UPDATE).
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow service.UnitOfWork) error) error {
	return m.run(ctx, writeTxOptions, fn)
}

// WithinSnapshot выполняет fn в транзакции REPEATABLE READ READ ONLY
func (m *TxManager) WithinSnapshot(ctx context.Context, fn func(ctx context.Context, uow service.UnitOfWork) error) error {
	return m.run(ctx, snapshotTxOptions, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, uow service.UnitOfWork) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Slots() service.SlotStore {
	return NewSlotRepository(u.tx)
}

func (u *unitOfWork) Ledgers() service.LedgerStore {
	return NewLedgerRepository(u.tx)
}

// LockTrainer транзакционная advisory-блокировка по id тренера, снимается при commit/rollback
func (u *unitOfWork) LockTrainer(ctx context.Context, trainerID int64) error {
	if _, err := u.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, trainerID); err != nil {
		return fmt.Errorf("advisory lock trainer %d: %w", trainerID, err)
	}
	return nil
}
