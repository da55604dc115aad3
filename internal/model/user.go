package model

import "time"

type Role string

const (
	RoleTrainer Role = "trainer"
	RoleTrainee Role = "trainee"
)

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	HasUnread  bool      `json:"has_unread"` // есть непрочитанные уведомления
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName имя для показа в расписании
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Caller аутентифицированный вызывающий, передаётся явно в каждую операцию
type Caller struct {
	ID   int64
	Role Role
}

// Caller строит идентичность вызывающего из пользователя
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
