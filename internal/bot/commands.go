package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/assisterr/bug-report-bot/internal/backend"
	"github.com/assisterr/bug-report-bot/internal/conversation"
	"github.com/assisterr/bug-report-bot/internal/domain"
	"github.com/assisterr/bug-report-bot/internal/format"
)

const mybugsLimit = 10

const welcomeText = `👋 *Welcome to the Bug Report Bot!*

I help you file bug reports straight into the tracker.

*Commands:*
/bug - Start a new bug report
/mybugs - List your recent reports
/view - Show one report, e.g. /view BUG-42
/status - Update a report's status, e.g. /status BUG-42 FIXED
/stats - Bug tracker statistics
/cancel - Abort the current report
/help - Show this message`

func (d *Dispatcher) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	slog.Info("command received", "chat_id", chatID, "user_id", msg.From.ID, "command", msg.Command())

	switch msg.Command() {
	case "start", "help":
		d.sendMarkdown(chatID, welcomeText)
	case "bug":
		d.cmdBug(chatID, msg.From)
	case "cancel":
		d.cmdCancel(ctx, chatID)
	case "mybugs":
		d.cmdMyBugs(ctx, chatID, msg.From.ID)
	case "view":
		d.cmdView(ctx, chatID, msg.CommandArguments())
	case "status":
		d.cmdStatus(ctx, chatID, msg.CommandArguments())
	case "stats":
		d.cmdStats(ctx, chatID)
	default:
		d.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (d *Dispatcher) cmdBug(chatID int64, user *tgbotapi.User) {
	reporter := domain.Reporter{
		TelegramID: user.ID,
		Username:   user.UserName,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
	}
	// Starting over replaces any half-finished draft.
	d.sessions.Start(chatID, reporter)
	d.sendReplies(chatID, []conversation.Reply{conversation.StartReply()})
	slog.Info("bug report started", "chat_id", chatID, "user_id", user.ID)
}

func (d *Dispatcher) cmdCancel(ctx context.Context, chatID int64) {
	sess, ok := d.sessions.Get(chatID)
	if !ok {
		d.sendText(chatID, "Nothing to cancel. Use /bug to start a report.")
		return
	}
	d.step(ctx, chatID, sess, conversation.Cancel())
}

// cmdMyBugs shows a loading placeholder, then edits it in place with the
// listing. When the tracker is unreachable it falls back to the local
// submission journal so the user still sees what they filed.
func (d *Dispatcher) cmdMyBugs(ctx context.Context, chatID, telegramID int64) {
	loading, err := d.api.Send(tgbotapi.NewMessage(chatID, "🔍 Fetching your bug reports..."))
	if err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
		return
	}

	bugs, err := d.backend.ListBugs(ctx, telegramID, mybugsLimit)
	if err != nil {
		slog.Error("failed to list bugs", "chat_id", chatID, "error", err)
		d.editMarkdown(chatID, loading.MessageID, d.mybugsFallback(ctx, telegramID))
		return
	}
	d.editMarkdown(chatID, loading.MessageID, format.BugList(bugs))
}

func (d *Dispatcher) mybugsFallback(ctx context.Context, telegramID int64) string {
	const unreachable = "⚠️ The bug tracker is unreachable right now."
	if d.journal == nil {
		return unreachable + " Please try again later."
	}

	subs, err := d.journal.RecentSubmissions(ctx, telegramID, mybugsLimit)
	if err != nil {
		slog.Error("failed to read submission journal", "user_id", telegramID, "error", err)
		return unreachable + " Please try again later."
	}
	if len(subs) == 0 {
		return unreachable + " Please try again later."
	}

	var b strings.Builder
	b.WriteString(unreachable)
	b.WriteString(" Showing your locally recorded submissions:\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "\n%s `%s` %s (%s)",
			format.PriorityEmoji(s.Priority), s.BugID, s.Title, format.TimeAgo(s.CreatedAt))
	}
	return b.String()
}

func (d *Dispatcher) cmdView(ctx context.Context, chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		d.sendText(chatID, "Usage: /view BUG-ID")
		return
	}

	bug, err := d.backend.GetBug(ctx, id)
	if err != nil {
		var berr *backend.Error
		if errors.As(err, &berr) && berr.NotFound() {
			d.sendText(chatID, fmt.Sprintf("🤷 No bug found with ID %s.", id))
			return
		}
		slog.Error("failed to fetch bug", "chat_id", chatID, "bug_id", id, "error", err)
		d.sendText(chatID, "⚠️ Couldn't reach the bug tracker. Please try again later.")
		return
	}
	d.sendMarkdown(chatID, format.BugDetails(*bug))
}

func (d *Dispatcher) cmdStatus(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		d.sendText(chatID, "Usage: /status BUG-ID STATUS\n\nStatuses: OPEN, IN_PROGRESS, FIXED, CLOSED")
		return
	}
	id := fields[0]
	status, err := domain.ParseStatus(strings.ToUpper(fields[1]))
	if err != nil {
		d.sendText(chatID, fmt.Sprintf("Unknown status %q. Statuses: OPEN, IN_PROGRESS, FIXED, CLOSED", fields[1]))
		return
	}

	bug, err := d.backend.UpdateBugStatus(ctx, id, status)
	if err != nil {
		var berr *backend.Error
		if errors.As(err, &berr) && berr.NotFound() {
			d.sendText(chatID, fmt.Sprintf("🤷 No bug found with ID %s.", id))
			return
		}
		slog.Error("failed to update bug status", "chat_id", chatID, "bug_id", id, "error", err)
		d.sendText(chatID, "⚠️ Couldn't update the bug. Please try again later.")
		return
	}
	d.sendMarkdown(chatID, fmt.Sprintf("%s `%s` is now *%s*.",
		format.StatusEmoji(bug.Status), bug.ID, string(bug.Status)))
}

func (d *Dispatcher) cmdStats(ctx context.Context, chatID int64) {
	stats, err := d.backend.GetStats(ctx)
	if err != nil {
		slog.Error("failed to fetch stats", "chat_id", chatID, "error", err)
		d.sendText(chatID, "⚠️ Couldn't reach the bug tracker. Please try again later.")
		return
	}
	d.sendMarkdown(chatID, format.Stats(*stats))
}

func (d *Dispatcher) editMarkdown(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := d.api.Send(edit); err != nil {
		slog.Error("failed to edit message", "chat_id", chatID, "error", err)
	}
}
