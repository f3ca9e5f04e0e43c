package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOf(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	cases := []struct {
		in   time.Time
		want Date
	}{
		{time.Date(2024, 2, 5, 15, 30, 45, 0, time.UTC), NewDate(2024, 2, 5)},
		// Local midnight in a positive-offset zone is still the previous
		// evening in UTC; the calendar date wins.
		{time.Date(2024, 2, 5, 0, 0, 0, 0, plus2), NewDate(2024, 2, 5)},
		{time.Date(2024, 2, 5, 23, 59, 0, 0, plus2), NewDate(2024, 2, 5)},
	}
	for i, tc := range cases {
		got := DateOf(tc.in)
		if !got.Equal(tc.want.Time) {
			t.Fatalf("case %d: DateOf(%s) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

func TestDateDaysSince(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	cases := []struct {
		from, to Date
		want     int
	}{
		{NewDate(2024, 1, 1), NewDate(2024, 1, 1), 0},
		{NewDate(2024, 1, 1), NewDate(2024, 1, 8), 7},
		{NewDate(2024, 2, 5), NewDate(2024, 3, 4), 28},
		{NewDate(2024, 2, 28), NewDate(2024, 3, 1), 2}, // leap year
		// A date carried in a local zone is 22 real hours after the stored
		// UTC midnight, but still a full calendar day later.
		{NewDate(2024, 2, 4), Date{Time: time.Date(2024, 2, 5, 0, 0, 0, 0, plus2)}, 1},
		{Date{Time: time.Date(2024, 2, 4, 0, 0, 0, 0, plus2)}, NewDate(2024, 2, 11), 7},
	}
	for i, tc := range cases {
		if got := tc.to.DaysSince(tc.from); got != tc.want {
			t.Fatalf("case %d: DaysSince = %d, want %d", i, got, tc.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:      "u1",
		Type:        Expense,
		Amount:      Money{Cents: 50000},
		Category:    "Bills",
		Description: "Rent",
		Date:        NewDate(2024, 1, 5),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tpl := good
	tpl.IsRecurring = true
	tpl.Frequency = Monthly
	if err := tpl.Validate(); err != nil {
		t.Fatalf("expected template ok, got %v", err)
	}

	bads := map[string]func(tx *Transaction){
		"empty user":             func(tx *Transaction) { tx.UserID = " " },
		"bad type":               func(tx *Transaction) { tx.Type = "transfer" },
		"zero amount":            func(tx *Transaction) { tx.Amount = Money{} },
		"empty category":         func(tx *Transaction) { tx.Category = "" },
		"zero date":              func(tx *Transaction) { tx.Date = Date{} },
		"recurring without freq": func(tx *Transaction) { tx.IsRecurring = true },
		"freq without recurring": func(tx *Transaction) { tx.Frequency = Daily },
		"unknown freq": func(tx *Transaction) {
			tx.IsRecurring = true
			tx.Frequency = "fortnightly"
		},
	}
	for name, mutate := range bads {
		t.Run(name, func(t *testing.T) {
			tx := good
			mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
