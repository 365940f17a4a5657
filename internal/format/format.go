// Package format renders bug-report data as Telegram Markdown messages.
package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/assisterr/bug-report-bot/internal/domain"
)

// PriorityEmoji returns the marker shown next to a priority level.
func PriorityEmoji(p domain.Priority) string {
	switch p {
	case domain.PriorityLow:
		return "🟢"
	case domain.PriorityMedium:
		return "🟡"
	case domain.PriorityHigh:
		return "🔴"
	case domain.PriorityCritical:
		return "💀"
	}
	return "⚪️"
}

// EnvironmentEmoji returns the marker shown next to an environment.
func EnvironmentEmoji(e domain.Environment) string {
	switch e {
	case domain.EnvironmentDev:
		return "🔧"
	case domain.EnvironmentProd:
		return "🚀"
	}
	return "❓"
}

// StatusEmoji returns the marker shown next to a bug status.
func StatusEmoji(s domain.Status) string {
	switch s {
	case domain.StatusOpen:
		return "🐛"
	case domain.StatusInProgress:
		return "🔧"
	case domain.StatusFixed:
		return "✅"
	case domain.StatusClosed:
		return "📦"
	}
	return "❓"
}

// escapeMarkdown protects underscores in enum values (IN_PROGRESS) from
// being parsed as Markdown italics.
func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "_", "\\_")
}

// Summary renders the confirmation view of a draft before submission.
func Summary(d domain.Draft) string {
	var b strings.Builder
	b.WriteString("📋 *Bug Report Summary:*\n\n")
	fmt.Fprintf(&b, "*Title:* %s\n", d.Description)
	if d.Environment != nil {
		fmt.Fprintf(&b, "*Environment:* %s %s\n", EnvironmentEmoji(*d.Environment), *d.Environment)
	}
	if d.Priority != nil {
		fmt.Fprintf(&b, "*Priority:* %s %s\n", PriorityEmoji(*d.Priority), *d.Priority)
	}

	if n := len(d.Screenshots); n > 0 {
		fmt.Fprintf(&b, "*Screenshots:* %d attached\n", n)
	} else {
		b.WriteString("*Screenshots:* None\n")
	}
	if d.ConsoleLogs != nil {
		b.WriteString("*Console Logs:* Yes\n")
	} else {
		b.WriteString("*Console Logs:* None\n")
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "*Tags:* %s\n", strings.Join(d.Tags, ", "))
	} else {
		b.WriteString("*Tags:* None\n")
	}

	b.WriteString("\nLooks good?")
	return b.String()
}

// BugCreated renders the success message after submission.
func BugCreated(id string, status domain.Status) string {
	var b strings.Builder
	b.WriteString("✅ *Bug created successfully!*\n\n")
	fmt.Fprintf(&b, "*Bug ID:* %s\n", id)
	fmt.Fprintf(&b, "*Status:* %s\n\n", escapeMarkdown(string(status)))
	b.WriteString("You'll be notified when this bug is fixed.\n")
	b.WriteString("Use /mybugs to see all your reports.")
	return b.String()
}

// BugList renders a reporter's recent bugs.
func BugList(bugs []domain.BugSummary) string {
	if len(bugs) == 0 {
		return "📭 You haven't reported any bugs yet.\n\nUse /bug to create your first bug report!"
	}

	var b strings.Builder
	b.WriteString("🐛 *Your Recent Bugs:*\n\n")
	for i, bug := range bugs {
		fmt.Fprintf(&b, "%d. *%s* %s [%s]\n", i+1, bug.ID, PriorityEmoji(bug.Priority), escapeMarkdown(string(bug.Status)))
		fmt.Fprintf(&b, "   %s\n", bug.Title)
		fmt.Fprintf(&b, "   %s %s • %s\n\n", EnvironmentEmoji(bug.Environment), bug.Environment, TimeAgo(bug.CreatedAt))
	}
	return b.String()
}

// Stats renders tracker-wide aggregate counts.
func Stats(stats domain.Stats) string {
	var b strings.Builder
	b.WriteString("📊 *Bug Statistics:*\n\n")
	fmt.Fprintf(&b, "*Total Bugs:* %d\n\n", stats.Total)

	writeGroup := func(title string, counts map[string]int, emoji func(string) string) {
		if len(counts) == 0 {
			return
		}
		fmt.Fprintf(&b, "*%s:*\n", title)
		for _, key := range sortedKeys(counts) {
			fmt.Fprintf(&b, "  %s %s: %d\n", emoji(key), escapeMarkdown(key), counts[key])
		}
		b.WriteString("\n")
	}

	writeGroup("By Status", stats.ByStatus, func(k string) string { return StatusEmoji(domain.Status(k)) })
	writeGroup("By Priority", stats.ByPriority, func(k string) string { return PriorityEmoji(domain.Priority(k)) })
	writeGroup("By Environment", stats.ByEnvironment, func(k string) string { return EnvironmentEmoji(domain.Environment(k)) })

	return strings.TrimRight(b.String(), "\n")
}

// BugDetails renders the full record shown by /view.
func BugDetails(bug domain.BugDetails) string {
	var b strings.Builder
	b.WriteString("🐛 *Bug Details*\n\n")
	fmt.Fprintf(&b, "*ID:* %s\n", bug.ID)
	fmt.Fprintf(&b, "*Title:* %s\n\n", bug.Title)
	if bug.Description != "" {
		fmt.Fprintf(&b, "*Description:*\n%s\n\n", bug.Description)
	}
	fmt.Fprintf(&b, "*Status:* %s %s\n", StatusEmoji(bug.Status), escapeMarkdown(string(bug.Status)))
	fmt.Fprintf(&b, "*Priority:* %s %s\n", PriorityEmoji(bug.Priority), bug.Priority)
	fmt.Fprintf(&b, "*Environment:* %s %s\n\n", EnvironmentEmoji(bug.Environment), bug.Environment)

	reporter := bug.Reporter.FirstName
	if reporter == "" {
		reporter = "Unknown"
	}
	if bug.Reporter.Username != "" {
		reporter += fmt.Sprintf(" (@%s)", bug.Reporter.Username)
	}
	fmt.Fprintf(&b, "*Reported by:* %s\n", reporter)
	fmt.Fprintf(&b, "*Created:* %s\n", TimeAgo(bug.CreatedAt))
	if bug.UpdatedAt != nil {
		fmt.Fprintf(&b, "*Updated:* %s\n", TimeAgo(*bug.UpdatedAt))
	}
	if bug.FixedAt != nil {
		fmt.Fprintf(&b, "*Fixed:* %s\n", TimeAgo(*bug.FixedAt))
	}
	if bug.Assignee != "" {
		fmt.Fprintf(&b, "*Assignee:* %s\n", bug.Assignee)
	}
	b.WriteString("\n")

	if n := len(bug.Screenshots); n > 0 {
		fmt.Fprintf(&b, "*Screenshots:* %d attached\n", n)
	}
	if bug.ConsoleLogs != "" {
		logs := bug.ConsoleLogs
		if len(logs) > 200 {
			logs = logs[:200] + "..."
		}
		fmt.Fprintf(&b, "*Console Logs:*\n`%s`\n\n", logs)
	}
	if len(bug.Tags) > 0 {
		fmt.Fprintf(&b, "*Tags:* %s\n", strings.Join(bug.Tags, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// TimeAgo renders a timestamp as relative time ("2 hours ago").
func TimeAgo(ts time.Time) string {
	if ts.IsZero() {
		return "unknown time"
	}

	seconds := time.Since(ts).Seconds()
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(int(seconds/60), "minute")
	case seconds < 86400:
		return plural(int(seconds/3600), "hour")
	case seconds < 604800:
		return plural(int(seconds/86400), "day")
	default:
		return plural(int(seconds/604800), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable ordering keeps message output deterministic.
	sort.Strings(keys)
	return keys
}
