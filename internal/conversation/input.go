// Package conversation implements the bug-report flow as an explicit
// state machine, independent of the Telegram transport.
package conversation

import "github.com/assisterr/bug-report-bot/internal/domain"

// InputKind discriminates the events a conversation can receive.
type InputKind int

const (
	// InputText is a plain text message.
	InputText InputKind = iota
	// InputPhoto is an image attachment.
	InputPhoto
	// InputChoice is an inline-button selection, carrying callback data.
	InputChoice
	// InputCancel is the /cancel command; accepted in every state.
	InputCancel
)

// Input is one event fed into the state machine.
type Input struct {
	Kind   InputKind
	Text   string
	Photo  *domain.Screenshot
	Choice string
}

// Text builds a text input.
func Text(s string) Input { return Input{Kind: InputText, Text: s} }

// Photo builds a screenshot input.
func Photo(s domain.Screenshot) Input { return Input{Kind: InputPhoto, Photo: &s} }

// Choice builds an inline-button input from callback data.
func Choice(data string) Input { return Input{Kind: InputChoice, Choice: data} }

// Cancel builds the cancellation input.
func Cancel() Input { return Input{Kind: InputCancel} }

// Callback data used by the inline keyboards. The bot layer builds its
// buttons from these so the machine and the transport stay in sync.
const (
	ChoiceEnvPrefix      = "env_"
	ChoicePriorityPrefix = "priority_"
	ChoiceConfirmSubmit  = "confirm_submit"
	ChoiceConfirmEdit    = "confirm_edit"
	ChoiceConfirmCancel  = "confirm_cancel"
)

// Keyboard names the inline keyboard to attach to a reply. The machine
// stays transport-agnostic; the bot layer maps these to Telegram markup.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardEnvironment
	KeyboardPriority
	KeyboardConfirmation
)

// Reply is one outbound prompt produced by a transition.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Action tells the caller what side effect, if any, a transition requests.
// Submission is the only transition with an external side effect; the
// caller performs it and owns the outcome (the machine keeps the session
// in the confirmation state so a failed submission can be retried).
type Action int

const (
	ActionNone Action = iota
	// ActionSubmit asks the caller to submit the draft to the backend.
	ActionSubmit
	// ActionCancelled asks the caller to discard the session.
	ActionCancelled
)

// Result is the outcome of one machine step.
type Result struct {
	Replies []Reply
	Action  Action
}

func reply(text string) Result {
	return Result{Replies: []Reply{{Text: text}}}
}
