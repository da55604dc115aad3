package handlers

import (
	"time"

	"github.com/Freeeeeet/pt_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	bookingService  *service.BookingService
	batchService    *service.BatchService
	scheduleService *service.ScheduleService
	ledgerService   *service.LedgerService
	location        *time.Location
	now             func() time.Time
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	batchService *service.BatchService,
	scheduleService *service.ScheduleService,
	ledgerService *service.LedgerService,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		bookingService:  bookingService,
		batchService:    batchService,
		scheduleService: scheduleService,
		ledgerService:   ledgerService,
		location:        location,
		now:             time.Now,
		logger:          logger,
	}
}

// today начало текущего дня в часовом поясе бота
func (h *Handlers) today() time.Time {
	now := h.now().In(h.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location)
}
