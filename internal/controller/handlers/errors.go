package handlers

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/pt_scheduler/internal/model"
)

// userMessage текст ошибки для пользователя; внутренние ошибки не раскрываются
func userMessage(err error) string {
	switch {
	case errors.Is(err, errBadArgs):
		return "❌ Неверный формат команды. Подробнее: /help"
	case errors.Is(err, model.ErrScheduleStartInPast):
		return "❌ Это время уже прошло."
	case errors.Is(err, model.ErrScheduleStartsTooSoon):
		return "❌ Записаться можно не позже чем за час до начала."
	case errors.Is(err, model.ErrCancellationTooLate):
		return "❌ Подтверждённое занятие можно отменить не позже чем за сутки."
	case errors.Is(err, model.ErrQueryRangeTooLong):
		return "❌ Слишком длинный период. Максимум 180 дней."
	case errors.Is(err, model.ErrInvalidDateRange):
		return "❌ Дата окончания раньше даты начала."
	case errors.Is(err, model.ErrScheduleStatusNotOpen):
		return "❌ Слот уже занят."
	case errors.Is(err, model.ErrScheduleStatusNotCancellable):
		return "❌ Слот свободен, отменять нечего."
	case errors.Is(err, model.ErrInvalidScheduleStatus):
		return "❌ Для этого слота нет заявки, ожидающей решения."
	case errors.Is(err, model.ErrSessionNotEnough):
		var shortage *model.SessionShortageError
		if errors.As(err, &shortage) {
			return fmt.Sprintf("❌ На контракте не хватает занятий: осталось %d, нужно %d.", shortage.Remaining, shortage.Requested)
		}
		return "❌ На контракте не хватает занятий."
	case errors.Is(err, model.ErrSessionCapacityExceeded):
		return "❌ Контракт перерасходован. Увеличьте количество занятий: /sessions"
	case errors.Is(err, model.ErrInvalidCapacity):
		return "❌ Количество занятий не может быть меньше уже использованных."
	case errors.Is(err, model.ErrScheduleNotFound):
		return "❌ Слот не найден."
	case errors.Is(err, model.ErrLedgerNotFound):
		return "❌ Нет действующего контракта с тренером."
	case errors.Is(err, model.ErrUserNotFound):
		return "❌ Пользователь не найден. Он должен сначала написать боту /start."
	case errors.Is(err, model.ErrScheduleAlreadyExists):
		return "❌ На это время у вас уже есть слот."
	case errors.Is(err, model.ErrLedgerAlreadyExists):
		return "❌ Контракт с этим клиентом уже есть. Изменить количество: /sessions"
	case errors.Is(err, model.ErrNotScheduleOwner):
		return "❌ Это не ваш слот."
	case errors.Is(err, model.ErrForbidden):
		return "❌ Эта команда вам недоступна."
	case errors.Is(err, model.ErrEmptyRequest):
		return "❌ Не указано ни одного слота."
	}

	switch model.KindOf(err) {
	case model.KindTimeWindow:
		return "❌ Неподходящее время."
	case model.KindNotFound:
		return "❌ Не найдено."
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// isUserError ошибка вызвана запросом пользователя, а не сбоем
func isUserError(err error) bool {
	return errors.Is(err, errBadArgs) || model.KindOf(err) != model.KindUnknown
}
