package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDailyRule(t *testing.T) {
	rule := DailyRule{}
	anchor := core.NewDate(2024, 1, 5)

	// A daily template with no prior occurrence is due on any day.
	for offset := 0; offset < 60; offset++ {
		today := core.Date{Time: anchor.AddDate(0, 0, offset)}
		if !rule.DueFromAnchor(anchor, today) {
			t.Fatalf("daily anchor check false on %s", today)
		}
	}

	cadence := []struct {
		days int
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{30, true},
	}
	for _, tc := range cadence {
		if got := rule.DueFromLast(tc.days); got != tc.want {
			t.Errorf("DueFromLast(%d) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestWeeklyRule_AnchorWeekday(t *testing.T) {
	rule := WeeklyRule{}
	anchor := core.NewDate(2024, 1, 3) // a Wednesday
	if anchor.Weekday() != time.Wednesday {
		t.Fatalf("fixture broken: %s is %s", anchor, anchor.Weekday())
	}

	// Probe a 60-day window: due exactly on Wednesdays.
	start := core.NewDate(2024, 1, 1)
	for offset := 0; offset < 60; offset++ {
		today := core.Date{Time: start.AddDate(0, 0, offset)}
		want := today.Weekday() == time.Wednesday
		if got := rule.DueFromAnchor(anchor, today); got != want {
			t.Errorf("DueFromAnchor(%s) = %v, want %v", today, got, want)
		}
	}
}

func TestWeeklyRule_Cadence(t *testing.T) {
	rule := WeeklyRule{}
	cases := []struct {
		days int
		want bool
	}{
		{6, false},
		{7, true},
		{8, true},
	}
	for _, tc := range cases {
		if got := rule.DueFromLast(tc.days); got != tc.want {
			t.Errorf("DueFromLast(%d) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestMonthlyRule_AnchorDay31NeverMatchesShortMonth(t *testing.T) {
	rule := MonthlyRule{}
	anchor := core.NewDate(2024, 1, 31)

	// April has 30 days: an anchor on day 31 must not fire on any of them.
	for day := 1; day <= 30; day++ {
		today := core.NewDate(2024, 4, day)
		if rule.DueFromAnchor(anchor, today) {
			t.Errorf("DueFromAnchor fired on %s for day-31 anchor", today)
		}
	}
}

func TestMonthlyRule_AnchorDayMatch(t *testing.T) {
	rule := MonthlyRule{}
	anchor := core.NewDate(2024, 1, 5)

	if !rule.DueFromAnchor(anchor, core.NewDate(2024, 2, 5)) {
		t.Error("expected due on matching day of month")
	}
	if rule.DueFromAnchor(anchor, core.NewDate(2024, 2, 6)) {
		t.Error("expected not due on non-matching day")
	}
}

func TestMonthlyRule_Cadence28DayApproximation(t *testing.T) {
	rule := MonthlyRule{}
	cases := []struct {
		days int
		want bool
	}{
		{27, false},
		{28, true}, // fixed 28-day baseline, not calendar months
		{31, true},
	}
	for _, tc := range cases {
		if got := rule.DueFromLast(tc.days); got != tc.want {
			t.Errorf("DueFromLast(%d) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestRuleFor_UnknownFrequency(t *testing.T) {
	for _, freq := range []core.Frequency{"", "yearly", "fortnightly"} {
		if _, ok := RuleFor(freq); ok {
			t.Errorf("RuleFor(%q) returned a rule", freq)
		}
	}
	for _, freq := range []core.Frequency{core.Daily, core.Weekly, core.Monthly} {
		if _, ok := RuleFor(freq); !ok {
			t.Errorf("RuleFor(%q) missing", freq)
		}
	}
}
