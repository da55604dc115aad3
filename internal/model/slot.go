package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotDuration фиксированная длительность слота
const SlotDuration = time.Hour

type SlotStatus string

const (
	SlotOpen     SlotStatus = "open"     // Свободен, можно подать заявку
	SlotApplied  SlotStatus = "applied"  // Заявка клиента ждёт решения тренера
	SlotReserved SlotStatus = "reserved" // Занятие подтверждено
)

// ParseSlotStatus разбирает статус из хранилища
func ParseSlotStatus(s string) (SlotStatus, error) {
	switch SlotStatus(s) {
	case SlotOpen, SlotApplied, SlotReserved:
		return SlotStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScheduleStatus, s)
	}
}

// IsBooked true для статусов, которые держат занятие на контракте
func (s SlotStatus) IsBooked() bool {
	switch s {
	case SlotApplied, SlotReserved:
		return true
	case SlotOpen:
		return false
	default:
		return false
	}
}

// SlotRecord один часовой слот тренера
type SlotRecord struct {
	ID        int64      `json:"id"`
	TrainerID int64      `json:"trainer_id"`
	StartAt   time.Time  `json:"start_at"`
	EndAt     time.Time  `json:"end_at"`
	Status    SlotStatus `json:"status"`
	LedgerID  *int64     `json:"ledger_id"` // nil только для open
	BatchID   *uuid.UUID `json:"batch_id"`  // общий для слотов, созданных одной пачкой
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewOpenSlot создаёт свободный слот
func NewOpenSlot(trainerID int64, startAt time.Time, batchID uuid.UUID) *SlotRecord {
	return &SlotRecord{
		TrainerID: trainerID,
		StartAt:   startAt,
		EndAt:     startAt.Add(SlotDuration),
		Status:    SlotOpen,
		BatchID:   &batchID,
	}
}

// NewReservedSlot создаёт слот сразу забронированным под контракт (прямая запись)
func NewReservedSlot(trainerID int64, startAt time.Time, batchID uuid.UUID, l *SessionLedger) (*SlotRecord, error) {
	slot := NewOpenSlot(trainerID, startAt, batchID)
	if err := slot.Register(l); err != nil {
		return nil, err
	}
	return slot, nil
}

// Consistent проверяет инвариант status == open <=> ledger == nil
func (s *SlotRecord) Consistent() bool {
	return (s.Status == SlotOpen) == (s.LedgerID == nil)
}

// canTransition таблица допустимых переходов
func canTransition(from, to SlotStatus) bool {
	switch from {
	case SlotOpen:
		return to == SlotApplied || to == SlotReserved
	case SlotApplied:
		return to == SlotReserved || to == SlotOpen
	case SlotReserved:
		return to == SlotOpen
	default:
		return false
	}
}

func (s *SlotRecord) checkTransition(to SlotStatus) error {
	if !canTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidScheduleStatus, s.Status, to)
	}
	return nil
}

func (s *SlotRecord) checkLedger(l *SessionLedger) error {
	if l == nil || s.LedgerID == nil || *s.LedgerID != l.ID {
		return fmt.Errorf("%w: schedule %d", ErrLedgerNotFound, s.ID)
	}
	return nil
}

// Apply open -> applied, списывает одно занятие
func (s *SlotRecord) Apply(l *SessionLedger) error {
	if err := s.checkTransition(SlotApplied); err != nil {
		return err
	}
	if err := l.Use(1); err != nil {
		return err
	}
	ledgerID := l.ID
	s.Status = SlotApplied
	s.LedgerID = &ledgerID
	return nil
}

// Accept applied -> reserved. Занятие уже списано при подаче заявки через Use,
// которая не даёт used превысить total; AddCapacity и CHECK session_ledgers_used_within_total
// в базе держат то же условие. Поэтому ErrSessionCapacityExceeded здесь возможна только
// при правке таблицы в обход сервисов.
func (s *SlotRecord) Accept(l *SessionLedger) error {
	if s.Status != SlotApplied {
		return fmt.Errorf("%w: accept from %s", ErrInvalidScheduleStatus, s.Status)
	}
	if err := s.checkLedger(l); err != nil {
		return err
	}
	if l.UsedSession > l.TotalSession {
		return fmt.Errorf("%w: used %d of %d", ErrSessionCapacityExceeded, l.UsedSession, l.TotalSession)
	}
	s.Status = SlotReserved
	return nil
}

// Reject applied -> open, возвращает занятие
func (s *SlotRecord) Reject(l *SessionLedger) (clamped bool, err error) {
	if s.Status != SlotApplied {
		return false, fmt.Errorf("%w: reject from %s", ErrInvalidScheduleStatus, s.Status)
	}
	return s.release(l)
}

// Cancel applied|reserved -> open, возвращает занятие
func (s *SlotRecord) Cancel(l *SessionLedger) (clamped bool, err error) {
	if !s.Status.IsBooked() {
		return false, fmt.Errorf("%w: cancel from %s", ErrScheduleStatusNotCancellable, s.Status)
	}
	return s.release(l)
}

// release сначала возвращает занятие на контракт, потом отвязывает слот:
// после очистки LedgerID найти контракт уже нельзя.
func (s *SlotRecord) release(l *SessionLedger) (bool, error) {
	if err := s.checkTransition(SlotOpen); err != nil {
		return false, err
	}
	if err := s.checkLedger(l); err != nil {
		return false, err
	}
	clamped := l.Restore(1)
	s.Status = SlotOpen
	s.LedgerID = nil
	return clamped, nil
}

// Register open -> reserved без заявки, списывает одно занятие
func (s *SlotRecord) Register(l *SessionLedger) error {
	if err := s.checkTransition(SlotReserved); err != nil {
		return err
	}
	if s.Status != SlotOpen {
		return fmt.Errorf("%w: register from %s", ErrInvalidScheduleStatus, s.Status)
	}
	if err := l.Use(1); err != nil {
		return err
	}
	ledgerID := l.ID
	s.Status = SlotReserved
	s.LedgerID = &ledgerID
	return nil
}
