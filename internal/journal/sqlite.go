package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteJournal implements Repository using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed journal.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bug_id TEXT NOT NULL,
		telegram_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		environment TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_reporter ON submissions(telegram_id, created_at);

	CREATE TABLE IF NOT EXISTS draft_backups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL,
		telegram_id INTEGER NOT NULL,
		draft_json TEXT NOT NULL,
		failure TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RecordSubmission stores the record of an accepted bug report.
func (j *SQLiteJournal) RecordSubmission(ctx context.Context, sub Submission) error {
	query := `
		INSERT INTO submissions (bug_id, telegram_id, title, environment, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	return j.execWithRetry(ctx, query,
		sub.BugID, sub.TelegramID, sub.Title,
		string(sub.Environment), string(sub.Priority), sub.CreatedAt.Unix())
}

// RecentSubmissions lists a user's locally recorded submissions, newest first.
func (j *SQLiteJournal) RecentSubmissions(ctx context.Context, telegramID int64, limit int) ([]Submission, error) {
	query := `
		SELECT bug_id, telegram_id, title, environment, priority, created_at
		FROM submissions
		WHERE telegram_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var env, prio string
		var createdAt int64
		if err := rows.Scan(&sub.BugID, &sub.TelegramID, &sub.Title, &env, &prio, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		sub.Environment = domain.Environment(env)
		sub.Priority = domain.Priority(prio)
		sub.CreatedAt = time.Unix(createdAt, 0)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}
	return subs, nil
}

// SaveDraftBackup stores a draft that could not be submitted.
func (j *SQLiteJournal) SaveDraftBackup(ctx context.Context, backup DraftBackup) error {
	query := `
		INSERT INTO draft_backups (chat_id, telegram_id, draft_json, failure, created_at)
		VALUES (?, ?, ?, ?, ?)`

	createdAt := backup.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return j.execWithRetry(ctx, query,
		backup.ChatID, backup.TelegramID, backup.DraftJSON, backup.Failure, createdAt.Unix())
}

// Ping verifies database connectivity.
func (j *SQLiteJournal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// execWithRetry retries writes that hit SQLITE_BUSY with exponential
// backoff. The journal is low-traffic; contention only occurs when a
// submission lands during a sweep.
func (j *SQLiteJournal) execWithRetry(ctx context.Context, query string, args ...any) error {
	const maxRetries = 3
	delay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		_, err = j.db.ExecContext(ctx, query, args...)
		if err == nil {
			return nil
		}
		if !isSQLiteConflict(err) || i == maxRetries-1 {
			break
		}
		slog.Debug("journal write hit busy database, retrying", "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("journal write: %w", err)
}

// isSQLiteConflict matches the two forms of SQLite contention errors
// that warrant a retry.
func isSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
