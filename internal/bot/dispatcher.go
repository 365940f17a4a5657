// Package bot wires Telegram updates to the conversation machine and
// command handlers.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/assisterr/bug-report-bot/internal/auth"
	"github.com/assisterr/bug-report-bot/internal/backend"
	"github.com/assisterr/bug-report-bot/internal/conversation"
	"github.com/assisterr/bug-report-bot/internal/domain"
	"github.com/assisterr/bug-report-bot/internal/format"
	"github.com/assisterr/bug-report-bot/internal/journal"
	"github.com/assisterr/bug-report-bot/internal/session"
)

// workerQueueSize bounds how many pending updates a single chat may have.
const workerQueueSize = 16

// Sender abstracts the Telegram API so handlers can be tested with a fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Backend is the slice of the bug-tracking client the bot uses.
type Backend interface {
	CreateBug(ctx context.Context, report domain.BugReport) (*backend.CreateBugResponse, error)
	ListBugs(ctx context.Context, telegramID int64, limit int) ([]domain.BugSummary, error)
	GetBug(ctx context.Context, id string) (*domain.BugDetails, error)
	GetStats(ctx context.Context) (*domain.Stats, error)
	UpdateBugStatus(ctx context.Context, id string, status domain.Status) (*domain.BugDetails, error)
}

// Dispatcher routes inbound updates to per-chat workers. Updates for one
// chat are processed in arrival order; distinct chats never block each
// other, so a slow retry sequence in one conversation cannot stall the
// rest of the bot.
type Dispatcher struct {
	api       Sender
	backend   Backend
	allowlist *auth.Allowlist
	sessions  *session.Store
	machine   *conversation.Machine
	journal   journal.Repository

	mu      sync.Mutex
	workers map[int64]chan tgbotapi.Update
	wg      sync.WaitGroup
}

// New creates a dispatcher. journal may be nil when local recording is
// disabled.
func New(api Sender, be Backend, allowlist *auth.Allowlist, sessions *session.Store, j journal.Repository) *Dispatcher {
	return &Dispatcher{
		api:       api,
		backend:   be,
		allowlist: allowlist,
		sessions:  sessions,
		machine:   conversation.NewMachine(),
		journal:   j,
		workers:   make(map[int64]chan tgbotapi.Update),
	}
}

// Run consumes updates until ctx is cancelled or the channel closes,
// then drains the per-chat workers.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer d.drain()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			d.dispatch(ctx, upd)
		}
	}
}

func (d *Dispatcher) drain() {
	d.mu.Lock()
	for _, ch := range d.workers {
		close(ch)
	}
	d.workers = make(map[int64]chan tgbotapi.Update)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, upd tgbotapi.Update) {
	chat := upd.FromChat()
	if chat == nil {
		return
	}

	d.mu.Lock()
	ch, ok := d.workers[chat.ID]
	if !ok {
		ch = make(chan tgbotapi.Update, workerQueueSize)
		d.workers[chat.ID] = ch
		d.wg.Add(1)
		go d.worker(ctx, ch)
	}
	d.mu.Unlock()

	select {
	case ch <- upd:
	default:
		slog.Warn("chat queue full, dropping update", "chat_id", chat.ID)
	}
}

func (d *Dispatcher) worker(ctx context.Context, ch chan tgbotapi.Update) {
	defer d.wg.Done()
	for upd := range ch {
		d.safeHandle(ctx, upd)
	}
}

// safeHandle isolates one update: a panicking handler must never take
// down dispatch for other chats.
func (d *Dispatcher) safeHandle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panicked", "panic", r, "update_id", upd.UpdateID)
			if chat := upd.FromChat(); chat != nil {
				d.sendText(chat.ID, "❌ Something went wrong. Please try again.")
			}
		}
	}()
	d.handleUpdate(ctx, upd)
}

func (d *Dispatcher) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	user := upd.SentFrom()
	if user == nil {
		return
	}

	if !d.allowlist.Allowed(user.ID) {
		d.rejectUnauthorized(upd, user)
		return
	}

	switch {
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		d.handleMessage(ctx, upd.Message)
	}
}

func (d *Dispatcher) rejectUnauthorized(upd tgbotapi.Update, user *tgbotapi.User) {
	slog.Warn("unauthorized access attempt", "user_id", user.ID, "username", user.UserName)

	// The rejection never reveals which identifiers are permitted.
	if upd.CallbackQuery != nil {
		if _, err := d.api.Request(tgbotapi.NewCallbackWithAlert(upd.CallbackQuery.ID, "You're not authorized to use this bot.")); err != nil {
			slog.Error("failed to answer callback", "error", err)
		}
		return
	}
	if upd.Message != nil {
		d.sendText(upd.Message.Chat.ID,
			"⛔️ Sorry, you're not authorized to use this bot.\n\n"+
				"This bot is restricted to specific users only. "+
				"If you believe you should have access, please contact the administrator.")
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		d.handleCommand(ctx, msg)
		return
	}

	sess, ok := d.sessions.Get(msg.Chat.ID)
	if !ok {
		slog.Debug("message outside conversation ignored", "chat_id", msg.Chat.ID)
		return
	}
	d.step(ctx, msg.Chat.ID, sess, messageInput(msg))
}

func (d *Dispatcher) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Ack first so the client stops the loading spinner.
	if _, err := d.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		slog.Error("failed to answer callback", "error", err)
	}
	if cq.Message == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	sess, ok := d.sessions.Get(chatID)
	if !ok {
		if _, err := d.api.Request(tgbotapi.NewCallbackWithAlert(cq.ID, "No active bug report. Use /bug to start one.")); err != nil {
			slog.Error("failed to answer callback", "error", err)
		}
		return
	}
	d.step(ctx, chatID, sess, conversation.Choice(cq.Data))
}

// messageInput converts a Telegram message into a machine input. For
// photos Telegram sends several sizes; the largest is last.
func messageInput(msg *tgbotapi.Message) conversation.Input {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return conversation.Photo(domain.Screenshot{
			FileID:       photo.FileID,
			FileUniqueID: photo.FileUniqueID,
			Width:        photo.Width,
			Height:       photo.Height,
			FileSize:     photo.FileSize,
		})
	}
	return conversation.Text(msg.Text)
}

func (d *Dispatcher) step(ctx context.Context, chatID int64, sess *session.Session, in conversation.Input) {
	res := d.machine.Step(sess, in)
	d.sendReplies(chatID, res.Replies)

	switch res.Action {
	case conversation.ActionCancelled:
		d.sessions.End(chatID)
		slog.Info("bug report cancelled", "chat_id", chatID, "user_id", sess.Reporter.TelegramID)
	case conversation.ActionSubmit:
		d.submit(ctx, chatID, sess)
	}
}

func (d *Dispatcher) submit(ctx context.Context, chatID int64, sess *session.Session) {
	report, err := sess.Draft.Report(sess.Reporter)
	if err != nil {
		slog.Error("draft failed submission invariant", "chat_id", chatID, "error", err)
		d.sendText(chatID, "❌ This report is missing required fields. Use /bug to start over.")
		return
	}

	d.sendText(chatID, "⏳ Submitting bug report...")

	resp, err := d.backend.CreateBug(ctx, report)
	if err == nil {
		d.recordSubmission(ctx, report, resp)
		d.sendMarkdown(chatID, format.BugCreated(resp.ID, resp.Status))
		d.sessions.End(chatID)
		slog.Info("bug report submitted", "chat_id", chatID, "user_id", report.Reporter.TelegramID, "bug_id", resp.ID)
		return
	}

	// The draft is preserved and the session stays in the confirmation
	// state, so the user can press Submit again or cancel.
	slog.Error("bug submission failed", "chat_id", chatID, "error", err)

	var berr *backend.Error
	if errors.As(err, &berr) && berr.Transient() {
		d.backupDraft(ctx, chatID, sess, berr)
	}
	d.sendMarkdown(chatID, submissionFailureText(err))
	reply := conversation.Reply{Text: "You can try submitting again, or cancel.", Keyboard: conversation.KeyboardConfirmation}
	d.sendReplies(chatID, []conversation.Reply{reply})
}

func submissionFailureText(err error) string {
	var berr *backend.Error
	if errors.As(err, &berr) {
		switch berr.Kind {
		case backend.FailureNetworkExhausted:
			return "❌ *Failed to submit bug report*\n\n" +
				"The bug tracker is unreachable right now. " +
				"Your draft has been kept — please try again in a moment."
		case backend.FailureServerExhausted:
			return "❌ *Failed to submit bug report*\n\n" +
				"The bug tracker is having trouble. " +
				"Your draft has been kept — please try again later."
		case backend.FailurePermanent:
			return "❌ *Failed to submit bug report*\n\n" +
				"The bug tracker rejected the report. " +
				"Please review it with Edit, or contact support."
		}
	}
	return "❌ *Failed to submit bug report*\n\nPlease try again later or contact support."
}

func (d *Dispatcher) recordSubmission(ctx context.Context, report domain.BugReport, resp *backend.CreateBugResponse) {
	if d.journal == nil {
		return
	}
	err := d.journal.RecordSubmission(ctx, journal.Submission{
		BugID:       resp.ID,
		TelegramID:  report.Reporter.TelegramID,
		Title:       report.Title,
		Environment: report.Environment,
		Priority:    report.Priority,
		CreatedAt:   resp.CreatedAt,
	})
	if err != nil {
		slog.Warn("failed to record submission in journal", "bug_id", resp.ID, "error", err)
	}
}

func (d *Dispatcher) backupDraft(ctx context.Context, chatID int64, sess *session.Session, berr *backend.Error) {
	if d.journal == nil {
		return
	}
	draftJSON, err := json.Marshal(sess.Draft)
	if err != nil {
		slog.Warn("failed to serialize draft for backup", "chat_id", chatID, "error", err)
		return
	}
	err = d.journal.SaveDraftBackup(ctx, journal.DraftBackup{
		ChatID:     chatID,
		TelegramID: sess.Reporter.TelegramID,
		DraftJSON:  string(draftJSON),
		Failure:    berr.Error(),
	})
	if err != nil {
		slog.Warn("failed to back up draft", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) sendReplies(chatID int64, replies []conversation.Reply) {
	for _, r := range replies {
		msg := tgbotapi.NewMessage(chatID, r.Text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if markup, ok := keyboardMarkup(r.Keyboard); ok {
			msg.ReplyMarkup = markup
		}
		if _, err := d.api.Send(msg); err != nil {
			slog.Error("failed to send reply", "chat_id", chatID, "error", err)
		}
	}
}

func (d *Dispatcher) sendText(chatID int64, text string) {
	if _, err := d.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := d.api.Send(msg); err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
