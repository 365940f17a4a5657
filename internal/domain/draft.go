package domain

import "fmt"

// maxTitleLen caps the backend title; the full text is kept as description.
const maxTitleLen = 200

// Draft accumulates bug-report fields while the conversation is in
// progress. Optional fields distinguish "skipped" (nil) from "supplied
// empty": ConsoleLogs stays nil when the user typed skip, Tags stays nil
// when no tags were given.
type Draft struct {
	Description string
	Screenshots []Screenshot
	Environment *Environment
	Priority    *Priority
	ConsoleLogs *string
	Tags        []string
}

// AddScreenshot appends one screenshot, preserving arrival order.
func (d *Draft) AddScreenshot(s Screenshot) {
	d.Screenshots = append(d.Screenshots, s)
}

// Complete reports whether the draft satisfies the submission invariant:
// non-empty description with environment and priority both chosen.
func (d *Draft) Complete() bool {
	return d.Description != "" && d.Environment != nil && d.Priority != nil
}

// Report assembles the immutable submission snapshot for the given
// reporter. It fails if the draft is incomplete.
func (d *Draft) Report(reporter Reporter) (BugReport, error) {
	if !d.Complete() {
		return BugReport{}, fmt.Errorf("draft is incomplete: description, environment and priority are required")
	}

	title := d.Description
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}

	screenshots := d.Screenshots
	if screenshots == nil {
		screenshots = []Screenshot{}
	}

	return BugReport{
		Title:       title,
		Description: d.Description,
		Environment: *d.Environment,
		Priority:    *d.Priority,
		Screenshots: screenshots,
		ConsoleLogs: d.ConsoleLogs,
		Tags:        d.Tags,
		Reporter:    reporter,
	}, nil
}
