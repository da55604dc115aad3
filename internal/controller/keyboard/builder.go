package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// Префиксы callback data: "<prefix><slot_id>"
const (
	ApplySlot  = "apply:"
	AcceptSlot = "accept:"
	RejectSlot = "reject:"
)

// MaxSlotButtons больше кнопок в одном сообщении Telegram показывает неудобно
const MaxSlotButtons = 20

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Len количество рядов
func (b *Builder) Len() int {
	return len(b.rows)
}

// Build создаёт финальную клавиатуру; без кнопок возвращает nil
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// SlotData callback data для действия над слотом
func SlotData(prefix string, slotID int64) string {
	return fmt.Sprintf("%s%d", prefix, slotID)
}
