package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/Freeeeeet/pt_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, telegram_id, username, first_name, last_name, role, has_unread, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE telegram_id = $1
	`

	user, err := scanUser(r.QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByUsername ищет пользователя по username без учёта регистра
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(username) = lower($1)
	`

	user, err := scanUser(r.QueryRow(ctx, query, username))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return user, nil
}

// Update обновляет данные пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, role = $4
		WHERE id = $5
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.ID,
	)

	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: id %d", model.ErrUserNotFound, user.ID)
	}

	return nil
}

// SetUnread выставляет или сбрасывает флаг непрочитанных уведомлений
func (r *UserRepository) SetUnread(ctx context.Context, userID int64, unread bool) error {
	query := `
		UPDATE users
		SET has_unread = $1
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, unread, userID)
	if err != nil {
		return fmt.Errorf("set unread: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: id %d", model.ErrUserNotFound, userID)
	}

	return nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ANY($1)
		ORDER BY first_name, last_name
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		user model.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&role,
		&user.HasUnread,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	return &user, nil
}
