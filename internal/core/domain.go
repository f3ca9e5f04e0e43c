// Package core holds the ledger's domain types: transactions, calendar
// dates, money amounts, and their validation rules.
package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

type (
	TransactionType string

	// Frequency is the cadence of a recurring template. An occurrence
	// carries no frequency (empty string maps to NULL in storage).
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger record. Templates and occurrences
	// share the same shape: a template has IsRecurring set and uses Date
	// as its anchor, an occurrence has IsRecurring unset and uses Date as
	// the day it happened. TemplateID is set only on rows materialized
	// from a template; user-entered occurrences carry zero.
	Transaction struct {
		ID          int64
		UserID      string
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
		Date        Date
		IsRecurring bool
		Frequency   Frequency
		TemplateID  int64
		IsDeleted   bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid recurring frequency")
	ErrEmptyUser        = errors.New("empty user id")
	ErrEmptyCategory    = errors.New("empty category")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	return f == Daily || f == Weekly || f == Monthly
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf reduces t to its calendar date, normalized to UTC midnight
// regardless of t's location, so a date taken from a local clock compares
// cleanly with a date parsed from storage.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String formats the date as YYYY-MM-DD, the storage wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// DaysSince returns the whole calendar days elapsed from other to d. Both
// sides are reduced to their calendar components first, so dates carrying
// different locations (or DST-shortened days) cannot skew the count.
func (d Date) DaysSince(other Date) int {
	y1, m1, day1 := d.Time.Date()
	y2, m2, day2 := other.Time.Date()
	a := time.Date(y1, m1, day1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, day2, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.IsRecurring {
		if !t.Frequency.Valid() {
			return ErrInvalidFrequency
		}
	} else if t.Frequency != "" {
		return errors.New("frequency set on non-recurring transaction")
	}
	return nil
}
