// Package journal provides the local record of bug-report activity:
// successful submissions and draft backups for submissions that failed.
package journal

import (
	"context"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

// Submission is the local record of one accepted bug report.
type Submission struct {
	BugID       string
	TelegramID  int64
	Title       string
	Environment domain.Environment
	Priority    domain.Priority
	CreatedAt   time.Time
}

// DraftBackup preserves a draft whose submission exhausted retries, so
// the report is not lost if the user gives up.
type DraftBackup struct {
	ChatID     int64
	TelegramID int64
	DraftJSON  string
	Failure    string
	CreatedAt  time.Time
}

// Repository defines the interface for the local journal.
type Repository interface {
	// RecordSubmission stores the record of an accepted bug report.
	RecordSubmission(ctx context.Context, sub Submission) error

	// RecentSubmissions lists a user's locally recorded submissions,
	// newest first. Used as a fallback when the backend is unreachable.
	RecentSubmissions(ctx context.Context, telegramID int64, limit int) ([]Submission, error)

	// SaveDraftBackup stores a draft that could not be submitted.
	SaveDraftBackup(ctx context.Context, backup DraftBackup) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
