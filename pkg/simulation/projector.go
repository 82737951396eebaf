package simulation

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
)

// Projection is a finished simulation towards a single target date.
type Projection struct {
	entries []BalanceEntry
}

// Project simulates [start, target]. A target before start fails with ErrInvalidRange and
// nothing is computed.
func Project(base decimal.Decimal, start, target time.Time, events []event.Event) (Projection, error) {
	start = localdate.Midnight(start)
	target = localdate.Anchor(target, start.Location())
	if target.Before(start) {
		return Projection{}, fmt.Errorf("%w: target %s is before start %s",
			ErrInvalidRange, localdate.Format(target), localdate.Format(start))
	}
	entries := Simulate(base, Range{Start: start, End: target}, events)
	return Projection{entries: entries}, nil
}

// Entries returns a copy of every simulated day.
func (p Projection) Entries() []BalanceEntry {
	return slices.Clone(p.entries)
}

// Sequence yields the days in order. It can be ranged over any number of times and
// stopping early is allowed.
func (p Projection) Sequence() iter.Seq2[int, BalanceEntry] {
	return func(yield func(int, BalanceEntry) bool) {
		for i, entry := range p.entries {
			if !yield(i, entry) {
				return
			}
		}
	}
}

// Final is the last simulated day. It is the zero entry only for a zero Projection.
func (p Projection) Final() BalanceEntry {
	if len(p.entries) == 0 {
		return BalanceEntry{}
	}
	return p.entries[len(p.entries)-1]
}

func (p Projection) Len() int {
	return len(p.entries)
}
