// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring-template dueness
// checking. Each frequency (daily, weekly, monthly) has its own rule that
// encapsulates both call shapes: the anchor check used when a template has
// never been materialized, and the days-since-last cadence check used once
// at least one occurrence exists.
package services

import (
	"fintrack/internal/core"
)

// FrequencyRule is the strategy interface for deciding whether a recurring
// template is due. Both methods are pure.
type FrequencyRule interface {
	// DueFromAnchor reports whether a template with the given anchor date
	// should fire today, absent any prior occurrence.
	DueFromAnchor(anchor, today core.Date) bool

	// DueFromLast reports whether enough whole days have passed since the
	// most recent occurrence.
	DueFromLast(daysSinceLast int) bool
}

// DailyRule fires every day.
type DailyRule struct{}

func (DailyRule) DueFromAnchor(_, _ core.Date) bool { return true }

func (DailyRule) DueFromLast(daysSinceLast int) bool { return daysSinceLast >= 1 }

// WeeklyRule fires on the anchor's weekday.
type WeeklyRule struct{}

func (WeeklyRule) DueFromAnchor(anchor, today core.Date) bool {
	return anchor.Weekday() == today.Weekday()
}

func (WeeklyRule) DueFromLast(daysSinceLast int) bool { return daysSinceLast >= 7 }

// MonthlyRule fires on the anchor's day of the month. An anchor day that
// does not exist in the current month (day 31 in a 30-day month) never
// matches for that month; that behavior is intentional and must not be
// clamped to the month's last day.
type MonthlyRule struct{}

func (MonthlyRule) DueFromAnchor(anchor, today core.Date) bool {
	return anchor.Day() == today.Day()
}

// DueFromLast uses a fixed 28-day approximation of a month, not calendar
// arithmetic.
func (MonthlyRule) DueFromLast(daysSinceLast int) bool { return daysSinceLast >= 28 }

// frequencyRules maps frequencies to their rules. A frequency absent from
// the registry is never due.
var frequencyRules = map[core.Frequency]FrequencyRule{
	core.Daily:   DailyRule{},
	core.Weekly:  WeeklyRule{},
	core.Monthly: MonthlyRule{},
}

// RuleFor returns the rule for a frequency. The second return is false for
// unknown or empty frequencies; callers treat those templates as not due.
func RuleFor(frequency core.Frequency) (FrequencyRule, bool) {
	rule, ok := frequencyRules[frequency]
	return rule, ok
}
