package conversation

import (
	"strings"
	"testing"

	"github.com/assisterr/bug-report-bot/internal/domain"
	"github.com/assisterr/bug-report-bot/internal/session"
)

func newSession() *session.Session {
	store := session.NewStore()
	return store.Start(1, domain.Reporter{TelegramID: 100, Username: "alice"})
}

// walkToConfirmation drives a session through the full flow with the
// given inputs for the optional steps.
func walkToConfirmation(t *testing.T, m *Machine, sess *session.Session) {
	t.Helper()

	steps := []struct {
		in        Input
		wantState session.State
	}{
		{Text("The transfer button disappears on mobile"), session.StateAwaitingScreenshots},
		{Photo(domain.Screenshot{FileID: "f1", FileUniqueID: "u1", Width: 800, Height: 600, FileSize: 1234}), session.StateAwaitingScreenshots},
		{Text("done"), session.StateAwaitingEnvironment},
		{Choice("env_PROD"), session.StateAwaitingPriority},
		{Choice("priority_CRITICAL"), session.StateAwaitingConsoleLogs},
		{Text("TypeError: x is undefined"), session.StateAwaitingTags},
		{Text("UI, mobile"), session.StateAwaitingConfirmation},
	}
	for i, step := range steps {
		res := m.Step(sess, step.in)
		if res.Action != ActionNone {
			t.Fatalf("step %d: unexpected action %v", i, res.Action)
		}
		if sess.State != step.wantState {
			t.Fatalf("step %d: state = %v, want %v", i, sess.State, step.wantState)
		}
	}
}

func TestFullWalkAccumulatesDraftInOrder(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	walkToConfirmation(t, m, sess)

	d := sess.Draft
	if d.Description != "The transfer button disappears on mobile" {
		t.Errorf("unexpected description: %q", d.Description)
	}
	if len(d.Screenshots) != 1 || d.Screenshots[0].FileID != "f1" {
		t.Errorf("unexpected screenshots: %+v", d.Screenshots)
	}
	if d.Environment == nil || *d.Environment != domain.EnvironmentProd {
		t.Errorf("unexpected environment: %v", d.Environment)
	}
	if d.Priority == nil || *d.Priority != domain.PriorityCritical {
		t.Errorf("unexpected priority: %v", d.Priority)
	}
	if d.ConsoleLogs == nil || *d.ConsoleLogs != "TypeError: x is undefined" {
		t.Errorf("unexpected console logs: %v", d.ConsoleLogs)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "UI" || d.Tags[1] != "mobile" {
		t.Errorf("unexpected tags: %v", d.Tags)
	}
}

func TestConfirmSubmitRequestsSubmission(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	walkToConfirmation(t, m, sess)

	res := m.Step(sess, Choice(ChoiceConfirmSubmit))
	if res.Action != ActionSubmit {
		t.Fatalf("expected ActionSubmit, got %v", res.Action)
	}
	// Session stays in confirmation so a failed submission can be retried.
	if sess.State != session.StateAwaitingConfirmation {
		t.Errorf("expected state to remain confirmation, got %v", sess.State)
	}
	if !sess.Draft.Complete() {
		t.Error("draft must stay intact until the caller confirms success")
	}
}

func TestShortDescriptionRepromptsWithoutMutation(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()

	res := m.Step(sess, Text("too short"))
	if sess.State != session.StateAwaitingDescription {
		t.Errorf("state changed on invalid input: %v", sess.State)
	}
	if sess.Draft.Description != "" {
		t.Errorf("draft mutated on invalid input: %q", sess.Draft.Description)
	}
	if len(res.Replies) != 1 || !strings.Contains(res.Replies[0].Text, "detailed description") {
		t.Errorf("expected re-prompt, got %+v", res.Replies)
	}
}

func TestScreenshotSelfLoop(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	m.Step(sess, Text("The transfer button disappears"))

	for i := 1; i <= 3; i++ {
		res := m.Step(sess, Photo(domain.Screenshot{FileID: "f", Width: i}))
		if sess.State != session.StateAwaitingScreenshots {
			t.Fatalf("photo %d: expected self-loop, got state %v", i, sess.State)
		}
		if !strings.Contains(res.Replies[0].Text, "Screenshot") {
			t.Errorf("photo %d: unexpected reply %q", i, res.Replies[0].Text)
		}
	}
	if len(sess.Draft.Screenshots) != 3 {
		t.Errorf("expected 3 screenshots, got %d", len(sess.Draft.Screenshots))
	}
	// Order preserved.
	for i, shot := range sess.Draft.Screenshots {
		if shot.Width != i+1 {
			t.Errorf("screenshot %d out of order: %+v", i, shot)
		}
	}
}

func TestEnumStepsIgnoreFreeText(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	m.Step(sess, Text("The transfer button disappears"))
	m.Step(sess, Text("skip"))

	res := m.Step(sess, Text("production please"))
	if sess.State != session.StateAwaitingEnvironment {
		t.Errorf("free text advanced the environment step: %v", sess.State)
	}
	if res.Replies[0].Keyboard != KeyboardEnvironment {
		t.Error("expected environment keyboard on re-prompt")
	}

	res = m.Step(sess, Choice("env_STAGING"))
	if sess.State != session.StateAwaitingEnvironment {
		t.Errorf("invalid enum advanced the environment step: %v", sess.State)
	}
	_ = res
}

func TestOptionalStepsSkip(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	m.Step(sess, Text("The transfer button disappears"))
	m.Step(sess, Text("skip"))
	m.Step(sess, Choice("env_DEV"))
	m.Step(sess, Choice("priority_LOW"))
	m.Step(sess, Text("skip"))
	res := m.Step(sess, Text("skip"))

	if sess.State != session.StateAwaitingConfirmation {
		t.Fatalf("expected confirmation state, got %v", sess.State)
	}
	if sess.Draft.ConsoleLogs != nil {
		t.Error("skipped console logs should stay nil")
	}
	if sess.Draft.Tags != nil {
		t.Error("skipped tags should stay nil")
	}
	if len(sess.Draft.Screenshots) != 0 {
		t.Error("skipped screenshots should stay empty")
	}
	last := res.Replies[len(res.Replies)-1]
	if last.Keyboard != KeyboardConfirmation {
		t.Error("expected confirmation keyboard with summary")
	}
}

func TestCancelFromEveryState(t *testing.T) {
	t.Parallel()

	m := NewMachine()

	// Inputs that advance a fresh session one state at a time.
	advance := []Input{
		Text("The transfer button disappears"),
		Text("done"),
		Choice("env_PROD"),
		Choice("priority_HIGH"),
		Text("some logs here"),
		Text("UI"),
	}

	for depth := 0; depth <= len(advance); depth++ {
		sess := newSession()
		for i := 0; i < depth; i++ {
			m.Step(sess, advance[i])
		}

		res := m.Step(sess, Cancel())
		if res.Action != ActionCancelled {
			t.Errorf("depth %d (state %v): expected ActionCancelled, got %v", depth, sess.State, res.Action)
		}
		if len(res.Replies) == 0 || !strings.Contains(res.Replies[0].Text, "cancelled") {
			t.Errorf("depth %d: expected cancellation reply, got %+v", depth, res.Replies)
		}
	}
}

func TestConfirmEditClearsDraftAndRestarts(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	walkToConfirmation(t, m, sess)

	res := m.Step(sess, Choice(ChoiceConfirmEdit))
	if res.Action != ActionNone {
		t.Errorf("expected no side effect, got %v", res.Action)
	}
	if sess.State != session.StateAwaitingDescription {
		t.Errorf("expected restart at description, got %v", sess.State)
	}
	if sess.Draft.Description != "" || len(sess.Draft.Screenshots) != 0 {
		t.Errorf("expected draft cleared, got %+v", sess.Draft)
	}
}

func TestConfirmationIgnoresFreeText(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	sess := newSession()
	walkToConfirmation(t, m, sess)

	res := m.Step(sess, Text("yes please"))
	if res.Action != ActionNone {
		t.Errorf("free text triggered action %v", res.Action)
	}
	if sess.State != session.StateAwaitingConfirmation {
		t.Errorf("free text changed state to %v", sess.State)
	}
	if res.Replies[0].Keyboard != KeyboardConfirmation {
		t.Error("expected confirmation keyboard on re-prompt")
	}
}
