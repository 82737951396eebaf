package simulation

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Below Direction = "below"
	Above Direction = "above"
)

// Crossing marks the day the balance moved across the threshold.
type Crossing struct {
	Date      time.Time
	Direction Direction
	Balance   decimal.Decimal
}

type Summary struct {
	Lowest  BalanceEntry
	Highest BalanceEntry
	// FirstBelow is the first day whose balance is under the threshold, nil if none.
	FirstBelow *BalanceEntry
	Crossings  []Crossing
}

// Analyze finds the extrema of the simulated balances and the days on which the balance
// crosses the threshold. Ties resolve to the earliest day. Entries are assumed to be in
// ascending date order. The first entry is compared against the threshold itself, so a
// simulation that starts below it reports a crossing on its first day.
func Analyze(entries []BalanceEntry, threshold decimal.Decimal) Summary {
	summary := Summary{}
	if len(entries) == 0 {
		return summary
	}
	summary.Lowest = entries[0]
	summary.Highest = entries[0]

	wasBelow := false
	for _, entry := range entries {
		if entry.Balance.LessThan(summary.Lowest.Balance) {
			summary.Lowest = entry
		}
		if entry.Balance.GreaterThan(summary.Highest.Balance) {
			summary.Highest = entry
		}

		below := entry.Balance.LessThan(threshold)
		if below && summary.FirstBelow == nil {
			first := entry
			summary.FirstBelow = &first
		}
		if below != wasBelow {
			direction := Below
			if !below {
				direction = Above
			}
			summary.Crossings = append(summary.Crossings, Crossing{
				Date:      entry.Date,
				Direction: direction,
				Balance:   entry.Balance,
			})
		}
		wasBelow = below
	}
	return summary
}
