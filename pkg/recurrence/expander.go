package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/forecastly/forecastly/internal/utils"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	log "github.com/sirupsen/logrus"
)

const DefaultHorizonMonths = 12

// Expander turns recurring rules into dated occurrences over the half-open horizon
// [start, start+HorizonMonths).
type Expander struct {
	Clock         utils.Clock
	HorizonMonths int
	// ExpandFutureRules expands rules whose start date is after today. When false such
	// rules produce no occurrences until their start date has passed.
	ExpandFutureRules bool
}

type ExpansionResult struct {
	Occurrences []event.Event
	Skipped     []error
}

type ruleKey struct {
	title     string
	amount    string
	frequency event.Frequency
}

func NewExpander(clock utils.Clock, horizonMonths int, expandFutureRules bool) Expander {
	return Expander{Clock: clock, HorizonMonths: horizonMonths, ExpandFutureRules: expandFutureRules}
}

// Expand expands every rule once per (title, amount, frequency). Malformed rules and rules
// with an unsupported frequency are reported in Skipped.
func (x Expander) Expand(rules []event.Event) ExpansionResult {
	result := ExpansionResult{}
	seen := make(map[ruleKey]struct{}, len(rules))

	for _, rule := range rules {
		if err := checkRule(rule); err != nil {
			log.Debugf("skipping rule %q: %v", rule.Title, err)
			result.Skipped = append(result.Skipped, fmt.Errorf("rule %q: %w", rule.Id, err))
			continue
		}
		key := ruleKey{title: rule.Title, amount: rule.Amount.String(), frequency: rule.Frequency}
		if _, dup := seen[key]; dup {
			log.Tracef("rule %s duplicates an already expanded rule", rule.Id)
			continue
		}
		seen[key] = struct{}{}

		start := localdate.Midnight(rule.StartDate)
		today := localdate.Today(x.now(), start.Location())
		if start.After(today) && !x.ExpandFutureRules {
			log.Debugf("rule %s starts on %s, after today; not expanded", rule.Id, localdate.Format(start))
			continue
		}
		result.Occurrences = append(result.Occurrences, x.occurrences(rule, start)...)
	}
	return result
}

func (x Expander) occurrences(rule event.Event, start time.Time) []event.Event {
	months := x.HorizonMonths
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	end := localdate.AddMonthsClamped(start, months)

	var occurrences []event.Event
	for step := 0; ; step++ {
		day := stepDate(rule.Frequency, start, step)
		if !day.Before(end) {
			break
		}
		occurrence := rule
		occurrence.Id = fmt.Sprintf("%s-%s", rule.Id, localdate.Format(day))
		occurrence.StartDate = day
		occurrence.Frequency = event.Once
		occurrence.Recurring = true
		occurrences = append(occurrences, occurrence)
	}
	return occurrences
}

// stepDate computes the step-th occurrence from the anchor, so monthly rules anchored on
// the 31st return to the 31st after a short month.
func stepDate(frequency event.Frequency, start time.Time, step int) time.Time {
	switch frequency {
	case event.Daily:
		return localdate.AddDays(start, step)
	case event.Weekly:
		return localdate.AddDays(start, 7*step)
	case event.BiWeekly:
		return localdate.AddDays(start, 14*step)
	default:
		return localdate.AddMonthsClamped(start, step)
	}
}

func checkRule(rule event.Event) error {
	if strings.TrimSpace(rule.Id) == "" {
		return fmt.Errorf("%w: id is required", ErrMalformedRecord)
	}
	if strings.TrimSpace(rule.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrMalformedRecord)
	}
	if rule.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrMalformedRecord)
	}
	switch rule.Frequency {
	case event.Daily, event.Weekly, event.BiWeekly, event.Monthly:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFrequency, rule.Frequency)
}

func (x Expander) now() time.Time {
	if x.Clock == nil {
		return time.Now()
	}
	return x.Clock.Now()
}
