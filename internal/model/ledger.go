package model

import (
	"fmt"
	"time"
)

// SessionLedger предоплаченный контракт на занятия между тренером и клиентом
type SessionLedger struct {
	ID           int64     `json:"id"`
	TrainerID    int64     `json:"trainer_id"`
	TraineeID    int64     `json:"trainee_id"`
	TotalSession int       `json:"total_session"`
	UsedSession  int       `json:"used_session"`
	Terminated   bool      `json:"terminated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSessionLedger создаёт контракт с нулевым расходом
func NewSessionLedger(trainerID, traineeID int64, total int) (*SessionLedger, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: total %d", ErrInvalidCapacity, total)
	}
	return &SessionLedger{
		TrainerID:    trainerID,
		TraineeID:    traineeID,
		TotalSession: total,
	}, nil
}

// Remaining возвращает количество ещё не использованных занятий
func (l *SessionLedger) Remaining() int {
	return l.TotalSession - l.UsedSession
}

// Use списывает n занятий
func (l *SessionLedger) Use(n int) error {
	if n < 0 {
		return fmt.Errorf("use %d sessions: negative count", n)
	}
	if l.UsedSession+n > l.TotalSession {
		return NewSessionShortage(l.Remaining(), n)
	}
	l.UsedSession += n
	return nil
}

// Restore возвращает n занятий на баланс.
// Если расход уходит ниже нуля, он обнуляется и возвращается true:
// вызывающий обязан залогировать рассогласование.
func (l *SessionLedger) Restore(n int) (clamped bool) {
	l.UsedSession -= n
	if l.UsedSession < 0 {
		l.UsedSession = 0
		return true
	}
	return false
}

// AddCapacity изменяет общее количество занятий (delta может быть отрицательной)
func (l *SessionLedger) AddCapacity(delta int) error {
	total := l.TotalSession + delta
	if total < l.UsedSession {
		return fmt.Errorf("%w: used %d, new total %d", ErrInvalidCapacity, l.UsedSession, total)
	}
	l.TotalSession = total
	return nil
}

// WithinCapacity проверяет инвариант 0 <= used <= total
func (l *SessionLedger) WithinCapacity() bool {
	return l.UsedSession >= 0 && l.UsedSession <= l.TotalSession
}
