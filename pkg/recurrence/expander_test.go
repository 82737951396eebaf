package recurrence

import (
	"testing"
	"time"

	"github.com/forecastly/forecastly/internal/utils"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestExpander() Expander {
	return NewExpander(utils.NewMockClock(today), 12, false)
}

func rule(id string, frequency event.Frequency, start string) event.Event {
	startDate, err := localdate.ParseIn(start, time.UTC)
	if err != nil {
		panic(err)
	}
	return event.Event{
		Id:        id,
		Title:     "Rule " + id,
		Amount:    decimal.NewFromInt(-100),
		Type:      event.Expense,
		Frequency: frequency,
		StartDate: startDate,
		Enabled:   true,
		Recurring: true,
		Source:    event.SourceCustom,
	}
}

func dates(events []event.Event) []string {
	result := make([]string, 0, len(events))
	for _, e := range events {
		result = append(result, localdate.Format(e.StartDate))
	}
	return result
}

func TestExpander_MonthlyFromEndOfMonth(t *testing.T) {
	result := newTestExpander().Expand([]event.Event{rule("rent", event.Monthly, "2025-01-31")})

	require.Empty(t, result.Skipped)
	assert.Equal(t, []string{
		"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31", "2025-06-30",
		"2025-07-31", "2025-08-31", "2025-09-30", "2025-10-31", "2025-11-30", "2025-12-31",
	}, dates(result.Occurrences))
}

func TestExpander_CadenceCounts(t *testing.T) {
	tests := []struct {
		frequency event.Frequency
		start     string
		count     int
		second    string
	}{
		{event.Daily, "2025-01-01", 365, "2025-01-02"},
		{event.Daily, "2024-01-01", 366, "2024-01-02"},
		{event.Weekly, "2025-01-01", 53, "2025-01-08"},
		{event.BiWeekly, "2025-01-01", 27, "2025-01-15"},
		{event.Monthly, "2025-01-15", 12, "2025-02-15"},
	}
	for _, tt := range tests {
		t.Run(string(tt.frequency)+" "+tt.start, func(t *testing.T) {
			result := newTestExpander().Expand([]event.Event{rule("r", tt.frequency, tt.start)})

			require.Len(t, result.Occurrences, tt.count)
			assert.Equal(t, tt.start, localdate.Format(result.Occurrences[0].StartDate))
			assert.Equal(t, tt.second, localdate.Format(result.Occurrences[1].StartDate))
		})
	}
}

func TestExpander_OccurrenceShape(t *testing.T) {
	source := rule("netflix", event.Monthly, "2025-03-10")
	source.Generated = true
	source.IsBank = true
	source.BankId = "bank-1"

	result := newTestExpander().Expand([]event.Event{source})

	require.NotEmpty(t, result.Occurrences)
	first := result.Occurrences[0]
	assert.Equal(t, "netflix-2025-03-10", first.Id)
	assert.Equal(t, event.Once, first.Frequency)
	assert.True(t, first.Recurring)
	assert.False(t, first.IsRule())
	assert.True(t, first.Generated)
	assert.True(t, first.IsBank)
	assert.Equal(t, "bank-1", first.BankId)
	assert.Equal(t, source.Title, first.Title)
	assert.True(t, source.Amount.Equal(first.Amount))
	assert.Equal(t, "2025-03-10", localdate.Format(source.StartDate), "rule must not be mutated")

	ids := make(map[string]struct{})
	for _, o := range result.Occurrences {
		ids[o.Id] = struct{}{}
	}
	assert.Len(t, ids, len(result.Occurrences))
}

func TestExpander_DeduplicatesRuleTriples(t *testing.T) {
	first := rule("a", event.Monthly, "2025-01-01")
	duplicate := rule("b", event.Monthly, "2025-02-01")
	duplicate.Title = first.Title
	otherAmount := rule("c", event.Monthly, "2025-01-01")
	otherAmount.Title = first.Title
	otherAmount.Amount = decimal.NewFromInt(-99)
	otherFrequency := rule("d", event.Weekly, "2025-01-01")
	otherFrequency.Title = first.Title

	result := newTestExpander().Expand([]event.Event{first, duplicate, otherAmount, otherFrequency})

	prefixes := map[string]int{}
	for _, o := range result.Occurrences {
		prefixes[o.Id[:1]]++
	}
	assert.Equal(t, map[string]int{"a": 12, "c": 12, "d": 53}, prefixes)
}

func TestExpander_FutureRules(t *testing.T) {
	future := rule("future", event.Monthly, "2025-06-16")
	startsToday := rule("today", event.Monthly, "2025-06-15")

	t.Run("skipped by default", func(t *testing.T) {
		result := newTestExpander().Expand([]event.Event{future, startsToday})

		assert.Empty(t, result.Skipped)
		require.Len(t, result.Occurrences, 12)
		assert.Equal(t, "today-2025-06-15", result.Occurrences[0].Id)
	})

	t.Run("expanded when enabled", func(t *testing.T) {
		expander := NewExpander(utils.NewMockClock(today), 12, true)

		result := expander.Expand([]event.Event{future})

		require.Len(t, result.Occurrences, 12)
		assert.Equal(t, "2025-06-16", localdate.Format(result.Occurrences[0].StartDate))
	})
}

func TestExpander_SkipsBadRules(t *testing.T) {
	unsupported := rule("yearly", "yearly", "2025-01-01")
	once := rule("once", event.Once, "2025-01-01")
	noTitle := rule("untitled", event.Monthly, "2025-01-01")
	noTitle.Title = " "
	noDate := rule("nodate", event.Monthly, "2025-01-01")
	noDate.StartDate = time.Time{}
	valid := rule("valid", event.Monthly, "2025-01-01")

	result := newTestExpander().Expand([]event.Event{unsupported, once, noTitle, noDate, valid})

	assert.Len(t, result.Occurrences, 12)
	require.Len(t, result.Skipped, 4)
	assert.ErrorIs(t, result.Skipped[0], ErrUnsupportedFrequency)
	assert.ErrorIs(t, result.Skipped[1], ErrUnsupportedFrequency)
	assert.ErrorIs(t, result.Skipped[2], ErrMalformedRecord)
	assert.ErrorIs(t, result.Skipped[3], ErrMalformedRecord)
}

func TestExpander_DefaultHorizonAndTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	r := rule("ny", event.Weekly, "2025-03-02")
	r = r.In(loc)
	expander := Expander{Clock: utils.NewMockClock(today)}

	result := expander.Expand([]event.Event{r})

	require.Len(t, result.Occurrences, 53)
	// the DST switch on 2025-03-09 must not shift the occurrence date
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, loc), result.Occurrences[1].StartDate)
}
