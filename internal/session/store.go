package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

// Store owns the chat → session table. It is created by main and shared
// with the dispatcher; there is no package-level state.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start creates a fresh session for the chat, replacing any previous one.
func (s *Store) Start(chatID int64, reporter domain.Reporter) *Session {
	now := time.Now()
	sess := &Session{
		ChatID:    chatID,
		Reporter:  reporter,
		State:     StateAwaitingDescription,
		StartedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[chatID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the active session for a chat, if any.
func (s *Store) Get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// End removes the session for a chat. Safe to call when none exists.
func (s *Store) End(chatID int64) {
	s.mu.Lock()
	delete(s.sessions, chatID)
	s.mu.Unlock()
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictStale drops sessions idle for longer than ttl and returns how many
// were removed.
func (s *Store) EvictStale(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for chatID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, chatID)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs a background goroutine that periodically evicts
// sessions abandoned mid-conversation.
func (s *Store) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if evicted := s.EvictStale(ttl); evicted > 0 {
					slog.Info("evicted stale sessions", "count", evicted)
				}
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
