package recurrence

import (
	"testing"
	"time"

	"github.com/forecastly/forecastly/internal/config"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spaced(name string, amount string, start string, count int, days int) []Transaction {
	first, err := localdate.ParseIn(start, time.UTC)
	if err != nil {
		panic(err)
	}
	txns := make([]Transaction, 0, count)
	for i := 0; i < count; i++ {
		txns = append(txns, Transaction{
			Name:   name,
			Amount: decimal.RequireFromString(amount),
			Date:   localdate.Format(localdate.AddDays(first, i*days)),
		})
	}
	return txns
}

func newTestDetector(cfg DetectorConfig) *Detector {
	return NewDetector(cfg, time.UTC)
}

func TestDetector_MonthlyCadence(t *testing.T) {
	detector := newTestDetector(DefaultDetectorConfig())

	result := detector.Detect(spaced("Gym Membership", "50", "2025-01-05", 4, 30))

	require.Len(t, result.Candidates, 1)
	candidate := result.Candidates[0]
	assert.Equal(t, "Gym Membership", candidate.Title)
	assert.True(t, decimal.NewFromInt(-50).Equal(candidate.Amount), "amount %s", candidate.Amount)
	assert.Equal(t, event.Monthly, candidate.Frequency)
	assert.Equal(t, 5, candidate.DayOfMonth)
	assert.Equal(t, "2025-01-05", localdate.Format(candidate.StartDate))
	assert.Equal(t, 4, candidate.Occurrences)
	assert.InDelta(t, 30.0, candidate.MeanIntervalDays, 0.001)
	assert.Empty(t, result.Skipped)
}

func TestDetector_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		transactions []Transaction
	}{
		{"two occurrences are never enough", spaced("Gym Membership", "50", "2025-01-05", 2, 30)},
		{"ten day cadence", spaced("Gym Membership", "50", "2025-01-05", 4, 10)},
		{"span shorter than sixty days", spaced("Gym Membership", "50", "2025-01-05", 3, 29)},
		{"mean interval at lower bound", spaced("Gym Membership", "50", "2025-01-05", 4, 25)},
		{"mean interval at upper bound", spaced("Gym Membership", "50", "2025-01-05", 4, 35)},
		{"amount below minimum", spaced("Parking", "9.99", "2025-01-05", 4, 30)},
		{"excluded merchant", spaced("STARBUCKS #1234", "12.50", "2025-01-05", 4, 30)},
		{"different amounts do not group", append(
			spaced("Utilities", "80", "2025-01-05", 2, 30),
			spaced("Utilities", "81", "2025-03-06", 2, 30)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := newTestDetector(DefaultDetectorConfig())

			result := detector.Detect(tt.transactions)

			assert.Empty(t, result.Candidates)
		})
	}
}

func TestDetector_GroupsByMagnitudeAcrossScale(t *testing.T) {
	txns := spaced("Insurance", "120.00", "2025-01-10", 3, 31)
	txns[1].Amount = decimal.RequireFromString("120")

	result := newTestDetector(DefaultDetectorConfig()).Detect(txns)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 3, result.Candidates[0].Occurrences)
}

func TestDetector_UsesEarliestSampleRegardlessOfInputOrder(t *testing.T) {
	txns := spaced("Phone", "45", "2025-02-14", 3, 30)
	txns[0], txns[2] = txns[2], txns[0]

	result := newTestDetector(DefaultDetectorConfig()).Detect(txns)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "2025-02-14", localdate.Format(result.Candidates[0].StartDate))
	assert.Equal(t, 14, result.Candidates[0].DayOfMonth)
}

func TestDetector_SkipsMalformedRecords(t *testing.T) {
	txns := spaced("Gym Membership", "50", "2025-01-05", 3, 30)
	txns = append(txns,
		Transaction{Name: "", Amount: decimal.NewFromInt(50), Date: "2025-04-05"},
		Transaction{Name: "Gym Membership", Amount: decimal.Zero, Date: "2025-04-05"},
		Transaction{Name: "Gym Membership", Amount: decimal.NewFromInt(50), Date: ""},
		Transaction{Name: "Gym Membership", Amount: decimal.NewFromInt(50), Date: "05/04/2025"},
	)

	result := newTestDetector(DefaultDetectorConfig()).Detect(txns)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 3, result.Candidates[0].Occurrences)
	require.Len(t, result.Skipped, 4)
	for _, err := range result.Skipped {
		assert.ErrorIs(t, err, ErrMalformedRecord)
	}
}

func TestDetector_Classification(t *testing.T) {
	refund := spaced("Cashback", "-25", "2025-01-01", 3, 31)

	t.Run("outflow classification always negates", func(t *testing.T) {
		result := newTestDetector(DefaultDetectorConfig()).Detect(refund)

		require.Len(t, result.Candidates, 1)
		assert.True(t, decimal.NewFromInt(-25).Equal(result.Candidates[0].Amount))
	})

	t.Run("feed sign classification keeps inflows positive", func(t *testing.T) {
		cfg := DefaultDetectorConfig()
		cfg.Classification = ClassifyByFeedSign

		result := newTestDetector(cfg).Detect(refund)

		require.Len(t, result.Candidates, 1)
		assert.True(t, decimal.NewFromInt(25).Equal(result.Candidates[0].Amount))
		assert.Equal(t, event.Income, result.Candidates[0].ToEvent("bank-1").Type)
	})
}

func TestDetector_SortsCandidatesByTitle(t *testing.T) {
	txns := append(spaced("Netflix", "15.99", "2025-01-03", 3, 30), spaced("Electricity", "60", "2025-01-20", 3, 30)...)

	result := newTestDetector(DefaultDetectorConfig()).Detect(txns)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "Electricity", result.Candidates[0].Title)
	assert.Equal(t, "Netflix", result.Candidates[1].Title)
}

func TestCandidate_ToEvent(t *testing.T) {
	candidate := Candidate{
		Title:     "Netflix",
		Amount:    decimal.RequireFromString("-15.99"),
		Frequency: event.Monthly,
		StartDate: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	e := candidate.ToEvent("bank-1")

	assert.Equal(t, event.Expense, e.Type)
	assert.True(t, e.Recurring)
	assert.True(t, e.Generated)
	assert.True(t, e.IsBank)
	assert.True(t, e.Enabled)
	assert.True(t, e.IsRule())
	assert.Equal(t, "bank-1", e.BankId)
	assert.Equal(t, event.SourceRecurringTransaction, e.Source)
	assert.NoError(t, e.Validate())
}

func TestNewDetectorConfig(t *testing.T) {
	cfg, err := NewDetectorConfig(config.Defaults().Detector)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MinOccurrences)
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.MinAmount))
	assert.Equal(t, ClassifyAsOutflow, cfg.Classification)

	bad := config.Defaults().Detector
	bad.Classification = "sideways"
	_, err = NewDetectorConfig(bad)
	assert.Error(t, err)

	bad = config.Defaults().Detector
	bad.MinAmount = "ten"
	_, err = NewDetectorConfig(bad)
	assert.Error(t, err)
}

func TestNewDetectorConfig_RejectsDegenerateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Detector)
	}{
		{"single occurrence", func(d *config.Detector) { d.MinOccurrences = 1 }},
		{"no occurrences", func(d *config.Detector) { d.MinOccurrences = 0 }},
		{"equal interval bounds", func(d *config.Detector) { d.MinIntervalDays, d.MaxIntervalDays = 30, 30 }},
		{"inverted interval bounds", func(d *config.Detector) { d.MinIntervalDays, d.MaxIntervalDays = 35, 25 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults().Detector
			tt.modify(&cfg)

			_, err := NewDetectorConfig(cfg)

			assert.Error(t, err)
		})
	}
}

func TestDetector_SingleTransactionIsNeverACandidate(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MinOccurrences = 1
	cfg.MinSpanDays = 0

	result := newTestDetector(cfg).Detect(spaced("Insurance", "120", "2025-01-05", 1, 30))

	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Skipped)
}
