package simulation

import (
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
)

type dedupeKey struct {
	title  string
	amount string
	date   localdate.Key
	typ    event.Type
}

func keyOf(e event.Event) dedupeKey {
	return dedupeKey{
		title:  e.Title,
		amount: e.Amount.String(),
		date:   localdate.KeyOf(e.StartDate),
		typ:    e.Type,
	}
}

// Dedupe merges the groups in order and drops every event whose (title, amount, date, type)
// was already seen. The first occurrence wins.
func Dedupe(groups ...[]event.Event) []event.Event {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	seen := make(map[dedupeKey]struct{}, total)
	result := make([]event.Event, 0, total)
	for _, g := range groups {
		for _, e := range g {
			k := keyOf(e)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			result = append(result, e)
		}
	}
	return result
}
