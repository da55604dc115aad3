package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/pt_scheduler/internal/formatting"
	"github.com/Freeeeeet/pt_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleContract обрабатывает /contract @клиент <занятий> и /contract @клиент end
func (h *Handlers) HandleContract(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.replyError(ctx, b, chatID, "contract", errBadArgs)
		return
	}

	trainee, err := h.resolveTrainee(ctx, args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, "contract", err)
		return
	}

	if strings.EqualFold(args[1], "end") {
		ledger, err := h.ledgerService.Terminate(ctx, user.Caller(), trainee.ID)
		if err != nil {
			h.replyError(ctx, b, chatID, "terminate contract", err)
			return
		}
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("📕 Контракт #%d с %s закрыт.", ledger.ID, trainee.DisplayName()))
		return
	}

	total, err := parseCount(args[1])
	if err != nil {
		h.replyError(ctx, b, chatID, "contract", err)
		return
	}

	ledger, err := h.ledgerService.CreateLedger(ctx, user.Caller(), trainee.ID, total)
	if err != nil {
		h.replyError(ctx, b, chatID, "contract", err)
		return
	}

	h.sendHTML(ctx, b, chatID, fmt.Sprintf("✅ Контракт с %s заключён.\n\n%s",
		html.EscapeString(trainee.DisplayName()), formatting.FormatLedger(ledger)), nil)
}

// HandleSessions обрабатывает /sessions @клиент <+N|-N>
func (h *Handlers) HandleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.replyError(ctx, b, chatID, "adjust sessions", errBadArgs)
		return
	}

	trainee, err := h.resolveTrainee(ctx, args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, "adjust sessions", err)
		return
	}

	delta, err := parseDelta(args[1])
	if err != nil {
		h.replyError(ctx, b, chatID, "adjust sessions", err)
		return
	}

	ledger, err := h.ledgerService.AdjustCapacity(ctx, user.Caller(), trainee.ID, delta)
	if err != nil {
		h.replyError(ctx, b, chatID, "adjust sessions", err)
		return
	}

	h.sendHTML(ctx, b, chatID, formatting.FormatLedger(ledger), nil)
}

// HandleBalance клиент видит все свои контракты, тренер - контракт с указанным клиентом
func (h *Handlers) HandleBalance(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	if user.Role == model.RoleTrainer {
		if len(args) != 1 {
			h.replyError(ctx, b, chatID, "balance", errBadArgs)
			return
		}
		trainee, err := h.resolveTrainee(ctx, args[0])
		if err != nil {
			h.replyError(ctx, b, chatID, "balance", err)
			return
		}
		ledger, err := h.ledgerService.GetActive(ctx, user.ID, trainee.ID)
		if err != nil {
			h.replyError(ctx, b, chatID, "balance", err)
			return
		}
		h.sendHTML(ctx, b, chatID, formatting.FormatLedger(ledger), nil)
		return
	}

	ledgers, err := h.ledgerService.ListForTrainee(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "balance", err)
		return
	}

	h.markRead(ctx, user)

	if len(ledgers) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 У вас нет действующих контрактов. Попросите тренера заключить контракт.")
		return
	}

	parts := make([]string, 0, len(ledgers))
	for _, ledger := range ledgers {
		parts = append(parts, formatting.FormatLedger(ledger))
	}
	h.sendHTML(ctx, b, chatID, strings.Join(parts, "\n\n"), nil)
}
