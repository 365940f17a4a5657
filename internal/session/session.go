// Package session tracks in-progress bug-report conversations per chat.
package session

import (
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

// State is the position of a conversation in the bug-report flow.
// Transitions only move forward through the sequence, loop in place on
// invalid input, or jump to a terminal outcome on cancel/submit.
type State int

const (
	StateAwaitingDescription State = iota
	StateAwaitingScreenshots
	StateAwaitingEnvironment
	StateAwaitingPriority
	StateAwaitingConsoleLogs
	StateAwaitingTags
	StateAwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case StateAwaitingDescription:
		return "awaiting_description"
	case StateAwaitingScreenshots:
		return "awaiting_screenshots"
	case StateAwaitingEnvironment:
		return "awaiting_environment"
	case StateAwaitingPriority:
		return "awaiting_priority"
	case StateAwaitingConsoleLogs:
		return "awaiting_console_logs"
	case StateAwaitingTags:
		return "awaiting_tags"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	}
	return "unknown"
}

// Session is one user's in-progress bug report. A session is mutated only
// by the per-chat worker that owns it, so it needs no internal locking;
// the Store serializes map access.
type Session struct {
	ChatID    int64
	Reporter  domain.Reporter
	State     State
	Draft     domain.Draft
	StartedAt time.Time
	UpdatedAt time.Time
}

// Touch records activity so the TTL sweeper keeps the session alive.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// ResetDraft clears accumulated fields and returns to the first question.
func (s *Session) ResetDraft() {
	s.Draft = domain.Draft{}
	s.State = StateAwaitingDescription
	s.Touch()
}
