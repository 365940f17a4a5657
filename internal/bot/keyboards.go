package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/assisterr/bug-report-bot/internal/conversation"
)

func environmentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔧 DEV", conversation.ChoiceEnvPrefix+"DEV"),
			tgbotapi.NewInlineKeyboardButtonData("🚀 PROD", conversation.ChoiceEnvPrefix+"PROD"),
		),
	)
}

func priorityKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🟢 Low", conversation.ChoicePriorityPrefix+"LOW"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🟡 Medium", conversation.ChoicePriorityPrefix+"MEDIUM"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔴 High", conversation.ChoicePriorityPrefix+"HIGH"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💀 Critical", conversation.ChoicePriorityPrefix+"CRITICAL"),
		),
	)
}

func confirmationKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", conversation.ChoiceConfirmSubmit),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", conversation.ChoiceConfirmEdit),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", conversation.ChoiceConfirmCancel),
		),
	)
}

// keyboardMarkup maps the machine's transport-agnostic keyboard names to
// Telegram inline keyboards.
func keyboardMarkup(k conversation.Keyboard) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch k {
	case conversation.KeyboardEnvironment:
		return environmentKeyboard(), true
	case conversation.KeyboardPriority:
		return priorityKeyboard(), true
	case conversation.KeyboardConfirmation:
		return confirmationKeyboard(), true
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}
