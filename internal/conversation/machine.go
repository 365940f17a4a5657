package conversation

import (
	"fmt"
	"strings"

	"github.com/assisterr/bug-report-bot/internal/domain"
	"github.com/assisterr/bug-report-bot/internal/format"
	"github.com/assisterr/bug-report-bot/internal/session"
)

const minDescriptionLen = 10

// skipWords advance past an optional step.
var skipWords = map[string]bool{"skip": true, "no": true, "none": true}

// doneWords finish the screenshot loop.
var doneWords = map[string]bool{"skip": true, "done": true, "finish": true, "next": true}

const (
	promptDescription = "🐛 *Let's report a bug!*\n\n" +
		"Please describe the bug you encountered.\n" +
		"Be as specific as possible.\n\n" +
		"_(Type /cancel to abort at any time)_"
	promptScreenshots = "📸 *Screenshots*\n\n" +
		"Send one or more screenshots of the bug.\n" +
		"You can send multiple photos in a row.\n\n" +
		"Type 'skip' or 'done' when finished."
	promptEnvironment = "🌍 *Environment*\n\n" +
		"In which environment did you encounter this bug?"
	promptPriority = "🎯 *Priority Level*\n\n" +
		"How critical is this bug?"
	promptConsoleLogs = "📋 *Console Logs*\n\n" +
		"Do you have any console logs or error messages?\n" +
		"Paste them here or type 'skip'."
	promptTags = "🏷️ *Tags*\n\n" +
		"Add tags to categorize this bug (comma-separated).\n" +
		"Examples: UI, mobile, authentication\n\n" +
		"Type 'skip' to skip."
	msgCancelled = "❌ Bug report cancelled.\n\n" +
		"Use /bug to start a new report anytime."
)

type handler func(*session.Session, Input) Result

// Machine drives a session through the bug-report flow. It holds an
// explicit state → handler table and no per-conversation state of its
// own, so a single Machine serves every session.
type Machine struct {
	handlers map[session.State]handler
}

// NewMachine builds the dispatch table.
func NewMachine() *Machine {
	m := &Machine{}
	m.handlers = map[session.State]handler{
		session.StateAwaitingDescription:  m.handleDescription,
		session.StateAwaitingScreenshots:  m.handleScreenshots,
		session.StateAwaitingEnvironment:  m.handleEnvironment,
		session.StateAwaitingPriority:     m.handlePriority,
		session.StateAwaitingConsoleLogs:  m.handleConsoleLogs,
		session.StateAwaitingTags:         m.handleTags,
		session.StateAwaitingConfirmation: m.handleConfirmation,
	}
	return m
}

// StartReply is the opening prompt sent when a session begins.
func StartReply() Reply {
	return Reply{Text: promptDescription}
}

// Step feeds one input into the session's current state and returns the
// replies to send plus any requested side effect. Validation failures
// re-prompt without mutating the draft or changing state.
func (m *Machine) Step(sess *session.Session, in Input) Result {
	sess.Touch()

	if in.Kind == InputCancel {
		return Result{Replies: []Reply{{Text: msgCancelled}}, Action: ActionCancelled}
	}

	h, ok := m.handlers[sess.State]
	if !ok {
		return reply("Something went wrong. Use /bug to start a new report.")
	}
	return h(sess, in)
}

func (m *Machine) handleDescription(sess *session.Session, in Input) Result {
	if in.Kind != InputText {
		return reply("⚠️ Please describe the bug in a text message.")
	}
	description := strings.TrimSpace(in.Text)
	if len(description) < minDescriptionLen {
		return reply(fmt.Sprintf("⚠️ Please provide a more detailed description (at least %d characters).", minDescriptionLen))
	}

	sess.Draft.Description = description
	sess.State = session.StateAwaitingScreenshots
	return reply(promptScreenshots)
}

func (m *Machine) handleScreenshots(sess *session.Session, in Input) Result {
	switch in.Kind {
	case InputPhoto:
		// Self-loop: keep accepting photos until the user says done.
		sess.Draft.AddScreenshot(*in.Photo)
		count := len(sess.Draft.Screenshots)
		return reply(fmt.Sprintf("✅ Screenshot %d received!\n\nSend more screenshots or type 'done' to continue.", count))

	case InputText:
		if !doneWords[strings.ToLower(strings.TrimSpace(in.Text))] {
			return reply("⚠️ Please send a photo or type 'skip'/'done' to continue.")
		}

		var ack string
		if count := len(sess.Draft.Screenshots); count > 0 {
			ack = fmt.Sprintf("✅ Received %d screenshot(s).", count)
		} else {
			ack = "📝 No screenshots added."
		}
		sess.State = session.StateAwaitingEnvironment
		return Result{Replies: []Reply{
			{Text: ack},
			{Text: promptEnvironment, Keyboard: KeyboardEnvironment},
		}}
	}
	return reply("⚠️ Please send a photo or type 'skip'/'done' to continue.")
}

func (m *Machine) handleEnvironment(sess *session.Session, in Input) Result {
	if in.Kind == InputChoice && strings.HasPrefix(in.Choice, ChoiceEnvPrefix) {
		env, err := domain.ParseEnvironment(strings.TrimPrefix(in.Choice, ChoiceEnvPrefix))
		if err == nil {
			sess.Draft.Environment = &env
			sess.State = session.StateAwaitingPriority
			return Result{Replies: []Reply{
				{Text: fmt.Sprintf("✅ Environment: %s", env)},
				{Text: promptPriority, Keyboard: KeyboardPriority},
			}}
		}
	}
	return Result{Replies: []Reply{{Text: promptEnvironment, Keyboard: KeyboardEnvironment}}}
}

func (m *Machine) handlePriority(sess *session.Session, in Input) Result {
	if in.Kind == InputChoice && strings.HasPrefix(in.Choice, ChoicePriorityPrefix) {
		prio, err := domain.ParsePriority(strings.TrimPrefix(in.Choice, ChoicePriorityPrefix))
		if err == nil {
			sess.Draft.Priority = &prio
			sess.State = session.StateAwaitingConsoleLogs
			return Result{Replies: []Reply{
				{Text: fmt.Sprintf("✅ Priority: %s", prio)},
				{Text: promptConsoleLogs},
			}}
		}
	}
	return Result{Replies: []Reply{{Text: promptPriority, Keyboard: KeyboardPriority}}}
}

func (m *Machine) handleConsoleLogs(sess *session.Session, in Input) Result {
	if in.Kind != InputText {
		return reply(promptConsoleLogs)
	}

	text := strings.TrimSpace(in.Text)
	var ack string
	if skipWords[strings.ToLower(text)] {
		ack = "📝 No console logs added."
	} else {
		sess.Draft.ConsoleLogs = &text
		ack = "✅ Console logs saved."
	}

	sess.State = session.StateAwaitingTags
	return Result{Replies: []Reply{{Text: ack}, {Text: promptTags}}}
}

func (m *Machine) handleTags(sess *session.Session, in Input) Result {
	if in.Kind != InputText {
		return reply(promptTags)
	}

	text := strings.TrimSpace(in.Text)
	var ack string
	if skipWords[strings.ToLower(text)] {
		ack = "📝 No tags added."
	} else {
		var tags []string
		for _, tag := range strings.Split(text, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		sess.Draft.Tags = tags
		ack = fmt.Sprintf("✅ Added %d tag(s).", len(tags))
	}

	sess.State = session.StateAwaitingConfirmation
	return Result{Replies: []Reply{
		{Text: ack},
		{Text: format.Summary(sess.Draft), Keyboard: KeyboardConfirmation},
	}}
}

func (m *Machine) handleConfirmation(sess *session.Session, in Input) Result {
	if in.Kind != InputChoice {
		return Result{Replies: []Reply{{Text: "Please use the buttons to confirm, edit or cancel.", Keyboard: KeyboardConfirmation}}}
	}

	switch in.Choice {
	case ChoiceConfirmSubmit:
		// The caller submits; on failure the session stays here so the
		// user can press Submit again or cancel.
		return Result{Action: ActionSubmit}

	case ChoiceConfirmEdit:
		sess.ResetDraft()
		return Result{Replies: []Reply{
			{Text: "✏️ Let's start over."},
			{Text: promptDescription},
		}}

	case ChoiceConfirmCancel:
		return Result{Replies: []Reply{{Text: msgCancelled}}, Action: ActionCancelled}
	}
	return Result{Replies: []Reply{{Text: "Please use the buttons to confirm, edit or cancel.", Keyboard: KeyboardConfirmation}}}
}
