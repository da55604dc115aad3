package model

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует ошибки расписания для транспортного слоя
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeWindow
	KindState
	KindCapacity
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeWindow:
		return "time_window"
	case KindState:
		return "state"
	case KindCapacity:
		return "capacity"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// ScheduleError ошибка отказа в операции над расписанием или балансом занятий
type ScheduleError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *ScheduleError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *ScheduleError {
	return &ScheduleError{Kind: kind, Code: code, Message: message}
}

// Ошибки временных окон
var (
	ErrScheduleStartInPast   = newError(KindTimeWindow, "SCHEDULE_START_IN_PAST", "schedule start time is in the past")
	ErrScheduleStartsTooSoon = newError(KindTimeWindow, "SCHEDULE_STARTS_TOO_SOON", "schedule starts in less than an hour")
	ErrCancellationTooLate   = newError(KindTimeWindow, "CANCELLATION_TOO_LATE", "reserved schedule cannot be cancelled within 24 hours of start")
	ErrQueryRangeTooLong     = newError(KindTimeWindow, "QUERY_RANGE_TOO_LONG", "query range exceeds the allowed number of days")
	ErrInvalidDateRange      = newError(KindTimeWindow, "INVALID_DATE_RANGE", "end date is before start date")
)

// Ошибки состояния слота
var (
	ErrScheduleStatusNotOpen        = newError(KindState, "SCHEDULE_STATUS_NOT_OPEN", "schedule is not open")
	ErrScheduleStatusNotCancellable = newError(KindState, "SCHEDULE_STATUS_NOT_CANCELLABLE", "schedule is neither applied nor reserved")
	ErrInvalidScheduleStatus        = newError(KindState, "INVALID_SCHEDULE_STATUS", "invalid schedule status for this transition")
)

// Ошибки баланса занятий
var (
	ErrSessionNotEnough        = newError(KindCapacity, "SESSION_NOT_ENOUGH", "not enough sessions left on the contract")
	ErrSessionCapacityExceeded = newError(KindCapacity, "SESSION_CAPACITY_EXCEEDED", "contract session capacity exceeded")
	ErrInvalidCapacity         = newError(KindCapacity, "INVALID_CAPACITY", "total sessions cannot drop below used sessions")
)

var (
	ErrScheduleNotFound = newError(KindNotFound, "SCHEDULE_NOT_FOUND", "schedule not found")
	ErrLedgerNotFound   = newError(KindNotFound, "LEDGER_NOT_FOUND", "session ledger not found")
	ErrUserNotFound     = newError(KindNotFound, "USER_NOT_FOUND", "user not found")

	// ErrLedgerNotExists используется прямой записью, по смыслу совпадает с ErrLedgerNotFound
	ErrLedgerNotExists = ErrLedgerNotFound

	ErrScheduleAlreadyExists = newError(KindConflict, "SCHEDULE_ALREADY_EXISTS", "schedule already exists at this time")
	ErrLedgerAlreadyExists   = newError(KindConflict, "LEDGER_ALREADY_EXISTS", "active session ledger already exists for this pair")

	ErrForbidden        = newError(KindForbidden, "FORBIDDEN", "operation is not allowed for this role")
	ErrNotScheduleOwner = newError(KindForbidden, "NOT_SCHEDULE_OWNER", "schedule does not belong to the caller")

	ErrEmptyRequest = newError(KindInvalidInput, "EMPTY_REQUEST", "no schedule times requested")
)

// SessionShortageError нехватка занятий на контракте с остатком и запрошенным количеством.
// Разворачивается в ErrSessionNotEnough.
type SessionShortageError struct {
	Remaining int
	Requested int
}

func (e *SessionShortageError) Error() string {
	return fmt.Sprintf("%s: remaining %d, requested %d", ErrSessionNotEnough.Error(), e.Remaining, e.Requested)
}

func (e *SessionShortageError) Unwrap() error {
	return ErrSessionNotEnough
}

// NewSessionShortage ошибка ErrSessionNotEnough с контекстом остатка
func NewSessionShortage(remaining, requested int) error {
	return &SessionShortageError{Remaining: remaining, Requested: requested}
}

// KindOf возвращает класс ошибки, если в цепочке есть ScheduleError
func KindOf(err error) ErrorKind {
	var se *ScheduleError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
