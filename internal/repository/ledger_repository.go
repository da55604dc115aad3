package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, trainer_id, trainee_id, total_session, used_session, terminated, created_at, updated_at`

// ledgerActivePairIndex частичный уникальный индекс: один действующий контракт на пару
const ledgerActivePairIndex = "session_ledgers_active_pair_uq"

type LedgerRepository struct {
	*base.Repository
}

func NewLedgerRepository(db base.DBTX) *LedgerRepository {
	return &LedgerRepository{Repository: base.NewRepository(db)}
}

// GetForUpdate получает контракт по ID и блокирует его
func (r *LedgerRepository) GetForUpdate(ctx context.Context, id int64) (*model.SessionLedger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM session_ledgers
		WHERE id = $1
		FOR UPDATE
	`

	ledger, err := scanLedger(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger by id: %w", err)
	}

	return ledger, nil
}

// FindActiveForUpdate действующий контракт пары тренер-клиент
func (r *LedgerRepository) FindActiveForUpdate(ctx context.Context, trainerID, traineeID int64) (*model.SessionLedger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM session_ledgers
		WHERE trainer_id = $1 AND trainee_id = $2 AND NOT terminated
		FOR UPDATE
	`

	ledger, err := scanLedger(r.QueryRow(ctx, query, trainerID, traineeID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active ledger: %w", err)
	}

	return ledger, nil
}

// ListActive все действующие контракты
func (r *LedgerRepository) ListActive(ctx context.Context) ([]*model.SessionLedger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM session_ledgers
		WHERE NOT terminated
		ORDER BY id
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []*model.SessionLedger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		ledgers = append(ledgers, ledger)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}

	return ledgers, nil
}

// ListByTrainee действующие контракты клиента со всеми тренерами
func (r *LedgerRepository) ListByTrainee(ctx context.Context, traineeID int64) ([]*model.SessionLedger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM session_ledgers
		WHERE trainee_id = $1 AND NOT terminated
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, traineeID)
	if err != nil {
		return nil, fmt.Errorf("list trainee ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []*model.SessionLedger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		ledgers = append(ledgers, ledger)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledgers: %w", err)
	}

	return ledgers, nil
}

// Create создаёт контракт; второй действующий контракт пары - ErrLedgerAlreadyExists
func (r *LedgerRepository) Create(ctx context.Context, ledger *model.SessionLedger) error {
	query := `
		INSERT INTO session_ledgers (trainer_id, trainee_id, total_session, used_session, terminated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		ledger.TrainerID,
		ledger.TraineeID,
		ledger.TotalSession,
		ledger.UsedSession,
		ledger.Terminated,
	).Scan(&ledger.ID, &ledger.CreatedAt, &ledger.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, ledgerActivePairIndex) {
			return fmt.Errorf("%w: trainer %d, trainee %d", model.ErrLedgerAlreadyExists, ledger.TrainerID, ledger.TraineeID)
		}
		return fmt.Errorf("create ledger: %w", err)
	}

	return nil
}

// Update сохраняет счётчики и признак закрытия
func (r *LedgerRepository) Update(ctx context.Context, ledger *model.SessionLedger) error {
	query := `
		UPDATE session_ledgers
		SET total_session = $1, used_session = $2, terminated = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		ledger.TotalSession,
		ledger.UsedSession,
		ledger.Terminated,
		ledger.ID,
	).Scan(&ledger.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: id %d", model.ErrLedgerNotFound, ledger.ID)
		}
		return fmt.Errorf("update ledger: %w", err)
	}

	return nil
}

func scanLedger(row pgx.Row) (*model.SessionLedger, error) {
	var ledger model.SessionLedger
	err := row.Scan(
		&ledger.ID,
		&ledger.TrainerID,
		&ledger.TraineeID,
		&ledger.TotalSession,
		&ledger.UsedSession,
		&ledger.Terminated,
		&ledger.CreatedAt,
		&ledger.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}
