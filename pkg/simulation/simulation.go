// Package simulation computes day-by-day running balances from dated cash-flow events.
// Every function here is pure: callers pass the reference dates explicitly.
package simulation

import (
	"errors"
	"time"

	"github.com/forecastly/forecastly/pkg/event"
	"github.com/shopspring/decimal"
)

var ErrInvalidRange = errors.New("invalid range")

// BalanceEntry is one simulated calendar day.
type BalanceEntry struct {
	Date      time.Time
	Balance   decimal.Decimal
	DayAmount decimal.Decimal
	// Events contributing to DayAmount, in input order.
	Events         []event.Event
	IsCurrentMonth bool
}

// Range is an inclusive day range. DisplayMonth is any day of the month being displayed;
// when zero no entry is flagged as current month.
type Range struct {
	Start        time.Time
	End          time.Time
	DisplayMonth time.Time
}
