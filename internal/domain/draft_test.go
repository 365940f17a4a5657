package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseEnums(t *testing.T) {
	t.Parallel()

	if _, err := ParseEnvironment("DEV"); err != nil {
		t.Fatalf("ParseEnvironment(DEV) failed: %v", err)
	}
	if _, err := ParseEnvironment("dev"); err == nil {
		t.Fatal("expected lowercase environment to be rejected")
	}
	if _, err := ParsePriority("CRITICAL"); err != nil {
		t.Fatalf("ParsePriority(CRITICAL) failed: %v", err)
	}
	if _, err := ParsePriority("URGENT"); err == nil {
		t.Fatal("expected unknown priority to be rejected")
	}
	if _, err := ParseStatus("IN_PROGRESS"); err != nil {
		t.Fatalf("ParseStatus(IN_PROGRESS) failed: %v", err)
	}
	if _, err := ParseStatus("DONE"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestDraftReportRequiresMandatoryFields(t *testing.T) {
	t.Parallel()

	var d Draft
	if _, err := d.Report(Reporter{TelegramID: 1}); err == nil {
		t.Fatal("expected incomplete draft to be rejected")
	}

	env := EnvironmentProd
	prio := PriorityCritical
	d = Draft{Description: "Transfer button missing", Environment: &env, Priority: &prio}
	report, err := d.Report(Reporter{TelegramID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.Title != "Transfer button missing" {
		t.Errorf("unexpected title: %q", report.Title)
	}
	if report.Environment != EnvironmentProd || report.Priority != PriorityCritical {
		t.Errorf("unexpected enum fields: %v %v", report.Environment, report.Priority)
	}
}

func TestDraftReportMarshalsEmptyScreenshotsAsArray(t *testing.T) {
	t.Parallel()

	env := EnvironmentProd
	prio := PriorityCritical
	d := Draft{Description: "Transfer button missing", Environment: &env, Priority: &prio}

	report, err := d.Report(Reporter{TelegramID: 42})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"screenshots":[]`) {
		t.Errorf("expected empty screenshots array, got %s", body)
	}
	if strings.Contains(body, "console_logs") || strings.Contains(body, "tags") {
		t.Errorf("expected skipped optional fields to be omitted, got %s", body)
	}
}

func TestDraftReportTruncatesTitle(t *testing.T) {
	t.Parallel()

	env := EnvironmentDev
	prio := PriorityLow
	long := strings.Repeat("x", 500)
	d := Draft{Description: long, Environment: &env, Priority: &prio}

	report, err := d.Report(Reporter{TelegramID: 1})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Title) != maxTitleLen {
		t.Errorf("expected title truncated to %d chars, got %d", maxTitleLen, len(report.Title))
	}
	if report.Description != long {
		t.Error("expected full description to be preserved")
	}
}

func TestDraftDistinguishesSkippedFromEmpty(t *testing.T) {
	t.Parallel()

	env := EnvironmentDev
	prio := PriorityLow
	empty := ""
	d := Draft{Description: "broken layout on mobile", Environment: &env, Priority: &prio, ConsoleLogs: &empty}

	report, err := d.Report(Reporter{TelegramID: 1})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.ConsoleLogs == nil {
		t.Fatal("expected supplied-empty console logs to survive as non-nil")
	}

	d.ConsoleLogs = nil
	report, err = d.Report(Reporter{TelegramID: 1})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.ConsoleLogs != nil {
		t.Fatal("expected skipped console logs to stay nil")
	}
}

func TestReporterDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reporter Reporter
		want     string
	}{
		{Reporter{FirstName: "Alice", Username: "al"}, "Alice"},
		{Reporter{Username: "al"}, "@al"},
		{Reporter{}, "User"},
	}
	for _, tt := range tests {
		if got := tt.reporter.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.reporter, got, tt.want)
		}
	}
}
