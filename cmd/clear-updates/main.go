// Clears the bot's pending Telegram updates. Useful after downtime when
// a backlog of stale messages would otherwise replay into the bot.
package main

import (
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}

	updates, err := bot.GetUpdates(tgbotapi.UpdateConfig{Limit: 100})
	if err != nil {
		slog.Error("Failed to fetch updates", "error", err)
		os.Exit(1)
	}
	if len(updates) == 0 {
		slog.Info("No pending updates")
		return
	}

	// Confirming with the last update ID plus one marks everything
	// before it as consumed.
	offset := updates[len(updates)-1].UpdateID + 1
	if _, err := bot.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Limit: 1}); err != nil {
		slog.Error("Failed to confirm updates", "error", err)
		os.Exit(1)
	}

	slog.Info("Cleared pending updates", "count", len(updates))
}
