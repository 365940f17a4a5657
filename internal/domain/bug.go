// Package domain defines the core bug-report types shared across the bot.
package domain

import (
	"fmt"
	"time"
)

// Environment identifies where a bug was observed.
type Environment string

const (
	EnvironmentDev  Environment = "DEV"
	EnvironmentProd Environment = "PROD"
)

// ParseEnvironment validates a raw environment value from user input.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvironmentDev, EnvironmentProd:
		return Environment(s), nil
	}
	return "", fmt.Errorf("invalid environment %q", s)
}

// Priority is the reporter-assigned severity of a bug.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ParsePriority validates a raw priority value from user input.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

// Status is the backend-assigned lifecycle state of a bug.
// The bot never sets it when creating a report.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFixed      Status = "FIXED"
	StatusClosed     Status = "CLOSED"
)

// ParseStatus validates a raw status value from user input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusFixed, StatusClosed:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Screenshot references a photo uploaded to Telegram. The backend stores
// the file identifiers, not the image bytes.
type Screenshot struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size"`
}

// Reporter describes the Telegram user who filed a report.
type Reporter struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// DisplayName returns a friendly name for greeting the reporter.
func (r Reporter) DisplayName() string {
	switch {
	case r.FirstName != "":
		return r.FirstName
	case r.Username != "":
		return "@" + r.Username
	}
	return "User"
}

// BugReport is the immutable snapshot submitted to the backend.
// Screenshots is always non-nil so it marshals as an empty array rather
// than null when no screenshots were provided.
type BugReport struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Environment Environment  `json:"environment"`
	Priority    Priority     `json:"priority"`
	Screenshots []Screenshot `json:"screenshots"`
	ConsoleLogs *string      `json:"console_logs,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Reporter    Reporter     `json:"reporter"`
}

// BugSummary is one entry of a reporter's bug listing.
type BugSummary struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	Environment Environment `json:"environment"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BugDetails is the full backend record shown by /view.
type BugDetails struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	Environment Environment  `json:"environment"`
	Screenshots []Screenshot `json:"screenshots,omitempty"`
	ConsoleLogs string       `json:"console_logs,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Assignee    string       `json:"assignee,omitempty"`
	Reporter    Reporter     `json:"reporter"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
	FixedAt     *time.Time   `json:"fixed_at,omitempty"`
}

// Stats aggregates bug counts across the whole tracker.
type Stats struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
	ByEnvironment map[string]int `json:"by_environment"`
}
