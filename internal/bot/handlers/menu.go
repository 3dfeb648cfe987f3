package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/zamorski/podarunky-bot/internal/conversation"
)

// Menu button labels. Routing matches on exact text, so these are the wire
// values the reply keyboards send back.
const (
	btnContactOperator = "✉️ Зв'язатися з оператором"
	btnTracking        = "📦 Дізнатися ТТН"
	btnInvoice         = "🧾 Рахунок-фактура"
	btnArrivals        = "🛍 Нові надходження"

	btnBroadcast  = "📣 Зробити розсилку"
	btnNewArrival = "🆕 Додати новинку"
)

// customerKeyboard is the main menu shown to customers.
func customerKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: btnContactOperator}},
			{{Text: btnTracking}, {Text: btnInvoice}},
			{{Text: btnArrivals}},
		},
		ResizeKeyboard: true,
	}
}

// adminKeyboard extends the customer menu with staff actions.
func adminKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: btnBroadcast}, {Text: btnNewArrival}},
			{{Text: btnArrivals}},
			{{Text: conversation.CancelText}},
		},
		ResizeKeyboard: true,
	}
}

// cancelKeyboard is shown while a multi-step flow is active.
func cancelKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: conversation.CancelText}},
		},
		ResizeKeyboard: true,
	}
}
