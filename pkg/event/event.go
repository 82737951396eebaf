package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
)

var ErrInvalidEvent = errors.New("invalid event")
var ErrUnsupportedFrequency = errors.New("unsupported frequency")

type Type string

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type Frequency string

const (
	Once     Frequency = "once"
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
)

// Source is a provenance tag. It is informational only.
type Source string

const (
	SourceCustom               Source = "Custom Event"
	SourceBankTransaction      Source = "Bank Transaction"
	SourceRecurringTransaction Source = "Recurring Transaction"
)

// Event is a single scheduled cash-flow item: either a concrete dated occurrence
// or a recurring rule anchored at StartDate.
type Event struct {
	Id        string
	Title     string
	Amount    decimal.Decimal // positive = inflow, negative = outflow
	Type      Type
	Frequency Frequency
	StartDate time.Time // local midnight
	Enabled   bool
	// Recurring marks rules and the occurrences expanded from them. An expanded
	// occurrence keeps Recurring=true but has Frequency=Once.
	Recurring  bool
	Generated  bool
	IsBank     bool
	BankId     string
	Source     Source
	SourceIcon string
}

// ParseFrequency accepts the canonical frequency names.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Once, Daily, Weekly, BiWeekly, Monthly:
		return f, nil
	case "biweekly":
		return BiWeekly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, s)
}

// TypeFromAmount classifies an amount by its sign. Zero counts as income.
func TypeFromAmount(amount decimal.Decimal) Type {
	if amount.IsNegative() {
		return Expense
	}
	return Income
}

// IsRule reports whether the event is a recurrence rule that still needs expanding.
func (e Event) IsRule() bool {
	return e.Recurring && e.Frequency != Once
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if e.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidEvent)
	}
	if _, err := ParseFrequency(string(e.Frequency)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	switch e.Type {
	case Income:
		if e.Amount.IsNegative() {
			return fmt.Errorf("%w: income amount must not be negative", ErrInvalidEvent)
		}
	case Expense:
		if e.Amount.IsPositive() {
			return fmt.Errorf("%w: expense amount must not be positive", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

// In re-anchors StartDate to the same calendar day in loc.
func (e Event) In(loc *time.Location) Event {
	e.StartDate = localdate.Anchor(e.StartDate, loc)
	return e
}

// OccursOn resolves whether the event falls on the given calendar day.
// Single occurrences match their exact day only; rules match every cadence step
// on or after their start date.
func (e Event) OccursOn(day time.Time) bool {
	diff := localdate.DaysBetween(e.StartDate, day)
	if diff < 0 {
		return false
	}
	if !e.IsRule() {
		return diff == 0
	}
	switch e.Frequency {
	case Daily:
		return true
	case Weekly:
		return diff%7 == 0
	case BiWeekly:
		return diff%14 == 0
	case Monthly:
		months := (day.Year()-e.StartDate.Year())*12 + int(day.Month()) - int(e.StartDate.Month())
		return localdate.SameDay(localdate.AddMonthsClamped(e.StartDate, months), day)
	}
	return false
}
