package simulation

import (
	"time"

	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Simulate walks the range one calendar day at a time. Each entry's DayAmount is the sum of
// enabled events falling on that day and Balance is the running total seeded by base.
// Amounts are used as stored; Type is never applied as a sign. An empty slice is returned
// when End is before Start.
func Simulate(base decimal.Decimal, r Range, events []event.Event) []BalanceEntry {
	start := localdate.Midnight(r.Start)
	end := localdate.Anchor(r.End, start.Location())
	days := localdate.DaysBetween(start, end) + 1
	if days <= 0 {
		return []BalanceEntry{}
	}

	byDay := make(map[localdate.Key][]event.Event)
	var rules []event.Event
	for _, e := range events {
		if !e.Enabled {
			continue
		}
		if e.IsRule() {
			rules = append(rules, e)
			continue
		}
		k := localdate.KeyOf(e.StartDate)
		byDay[k] = append(byDay[k], e)
	}

	var displayYear int
	var displayMonth time.Month
	if !r.DisplayMonth.IsZero() {
		displayYear, displayMonth = r.DisplayMonth.Year(), r.DisplayMonth.Month()
	}

	entries := make([]BalanceEntry, 0, days)
	balance := base
	for i := 0; i < days; i++ {
		day := localdate.AddDays(start, i)
		dayEvents := eventsOn(day, byDay[localdate.KeyOf(day)], rules)

		dayAmount := decimal.Zero
		for _, e := range dayEvents {
			dayAmount = dayAmount.Add(e.Amount)
		}
		balance = balance.Add(dayAmount)

		entries = append(entries, BalanceEntry{
			Date:           day,
			Balance:        balance,
			DayAmount:      dayAmount,
			Events:         dayEvents,
			IsCurrentMonth: day.Year() == displayYear && day.Month() == displayMonth,
		})
	}
	log.Tracef("simulated %d days from %s, final balance %s", days, localdate.Format(start), balance)
	return entries
}

// eventsOn returns the dated events of the day followed by the rules that fall on it.
func eventsOn(day time.Time, dated []event.Event, rules []event.Event) []event.Event {
	result := make([]event.Event, 0, len(dated))
	result = append(result, dated...)
	for _, rule := range rules {
		if rule.OccursOn(day) {
			occurrence := rule
			occurrence.StartDate = day
			result = append(result, occurrence)
		}
	}
	return result
}
