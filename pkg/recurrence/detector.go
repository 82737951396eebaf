package recurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forecastly/forecastly/internal/config"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Classification decides the sign of an emitted candidate.
type Classification string

const (
	// ClassifyAsOutflow always emits candidates as outflows (negated magnitude).
	ClassifyAsOutflow Classification = "outflow"
	// ClassifyByFeedSign follows the feed convention: positive means money left the
	// account, so the emitted amount is the negated feed amount.
	ClassifyByFeedSign Classification = "feed-sign"
)

func ParseClassification(s string) (Classification, error) {
	switch Classification(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClassifyAsOutflow:
		return ClassifyAsOutflow, nil
	case ClassifyByFeedSign:
		return ClassifyByFeedSign, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// Transaction is the detector's view of an imported transaction.
// Amount follows the feed convention (positive = money left the account).
type Transaction struct {
	Name   string
	Amount decimal.Decimal
	Date   string
}

type DetectorConfig struct {
	MinOccurrences int
	MinSpanDays    int
	// Mean interval bounds, both exclusive.
	MinIntervalDays   int
	MaxIntervalDays   int
	MinAmount         decimal.Decimal
	ExcludedMerchants []string
	Classification    Classification
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinOccurrences:    3,
		MinSpanDays:       60,
		MinIntervalDays:   25,
		MaxIntervalDays:   35,
		MinAmount:         decimal.NewFromInt(10),
		ExcludedMerchants: config.DefaultExcludedMerchants,
		Classification:    ClassifyAsOutflow,
	}
}

// NewDetectorConfig converts the application detector section.
func NewDetectorConfig(cfg config.Detector) (DetectorConfig, error) {
	minAmount, err := decimal.NewFromString(cfg.MinAmount)
	if err != nil {
		return DetectorConfig{}, fmt.Errorf("invalid detector min amount %q: %w", cfg.MinAmount, err)
	}
	classification, err := ParseClassification(cfg.Classification)
	if err != nil {
		return DetectorConfig{}, err
	}
	if cfg.MinOccurrences < 2 {
		return DetectorConfig{}, fmt.Errorf("detector min occurrences must be at least 2, got %d", cfg.MinOccurrences)
	}
	if cfg.MinIntervalDays >= cfg.MaxIntervalDays {
		return DetectorConfig{}, fmt.Errorf("detector interval window [%d, %d] is empty", cfg.MinIntervalDays, cfg.MaxIntervalDays)
	}
	return DetectorConfig{
		MinOccurrences:    cfg.MinOccurrences,
		MinSpanDays:       cfg.MinSpanDays,
		MinIntervalDays:   cfg.MinIntervalDays,
		MaxIntervalDays:   cfg.MaxIntervalDays,
		MinAmount:         minAmount,
		ExcludedMerchants: cfg.ExcludedMerchants,
		Classification:    classification,
	}, nil
}

type Candidate struct {
	Title            string
	Amount           decimal.Decimal
	Frequency        event.Frequency
	DayOfMonth       int
	StartDate        time.Time
	Occurrences      int
	MeanIntervalDays float64
}

// ToEvent turns the candidate into a recurring rule owned by the given bank.
func (c Candidate) ToEvent(bankId string) event.Event {
	return event.Event{
		Title:      c.Title,
		Amount:     c.Amount,
		Type:       event.TypeFromAmount(c.Amount),
		Frequency:  c.Frequency,
		StartDate:  c.StartDate,
		Enabled:    true,
		Recurring:  true,
		Generated:  true,
		IsBank:     true,
		BankId:     bankId,
		Source:     event.SourceRecurringTransaction,
		SourceIcon: "repeat",
	}
}

type DetectionResult struct {
	Candidates []Candidate
	Skipped    []error
}

type Detector struct {
	cfg      DetectorConfig
	loc      *time.Location
	excluded []string
}

// NewDetector creates a detector that parses transaction dates in loc (time.Local when nil).
func NewDetector(cfg DetectorConfig, loc *time.Location) *Detector {
	if loc == nil {
		loc = time.Local
	}
	excluded := make([]string, 0, len(cfg.ExcludedMerchants))
	for _, merchant := range cfg.ExcludedMerchants {
		if m := strings.ToLower(strings.TrimSpace(merchant)); m != "" {
			excluded = append(excluded, m)
		}
	}
	return &Detector{cfg: cfg, loc: loc, excluded: excluded}
}

type groupKey struct {
	name      string
	magnitude string
}

type sample struct {
	name   string
	amount decimal.Decimal
	date   time.Time
}

// Detect groups transactions by exact name and magnitude and returns the groups that
// repeat on a roughly monthly cadence. Candidates are ordered by title.
func (d *Detector) Detect(transactions []Transaction) DetectionResult {
	result := DetectionResult{}
	groups := make(map[groupKey][]sample)
	var order []groupKey

	for i, txn := range transactions {
		s, err := d.parse(txn)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Errorf("transaction %d: %w", i, err))
			continue
		}
		key := groupKey{name: s.name, magnitude: s.amount.Abs().String()}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	for _, key := range order {
		candidate, ok := d.evaluate(groups[key])
		if !ok {
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		a, b := result.Candidates[i], result.Candidates[j]
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.StartDate.Before(b.StartDate)
	})
	log.Debugf("detected %d recurring candidates from %d transactions (%d skipped)",
		len(result.Candidates), len(transactions), len(result.Skipped))
	return result
}

func (d *Detector) parse(txn Transaction) (sample, error) {
	if strings.TrimSpace(txn.Name) == "" {
		return sample{}, fmt.Errorf("%w: name is required", ErrMalformedRecord)
	}
	if txn.Amount.IsZero() {
		return sample{}, fmt.Errorf("%w: amount is required", ErrMalformedRecord)
	}
	if strings.TrimSpace(txn.Date) == "" {
		return sample{}, fmt.Errorf("%w: date is required", ErrMalformedRecord)
	}
	date, err := localdate.ParseIn(txn.Date, d.loc)
	if err != nil {
		return sample{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return sample{name: txn.Name, amount: txn.Amount, date: date}, nil
}

func (d *Detector) evaluate(samples []sample) (Candidate, bool) {
	// at least one interval is needed for a mean
	if len(samples) < max(d.cfg.MinOccurrences, 2) {
		return Candidate{}, false
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].date.Before(samples[j].date) })

	first, last := samples[0], samples[len(samples)-1]
	if localdate.DaysBetween(first.date, last.date) < d.cfg.MinSpanDays {
		return Candidate{}, false
	}

	total := 0
	for i := 1; i < len(samples); i++ {
		total += localdate.DaysBetween(samples[i-1].date, samples[i].date)
	}
	mean := float64(total) / float64(len(samples)-1)
	if mean <= float64(d.cfg.MinIntervalDays) || mean >= float64(d.cfg.MaxIntervalDays) {
		return Candidate{}, false
	}
	if first.amount.Abs().LessThan(d.cfg.MinAmount) {
		return Candidate{}, false
	}
	if d.isExcluded(first.name) {
		log.Tracef("skipping excluded merchant %q", first.name)
		return Candidate{}, false
	}

	return Candidate{
		Title:            first.name,
		Amount:           d.classify(first.amount),
		Frequency:        event.Monthly,
		DayOfMonth:       first.date.Day(),
		StartDate:        first.date,
		Occurrences:      len(samples),
		MeanIntervalDays: mean,
	}, true
}

func (d *Detector) classify(amount decimal.Decimal) decimal.Decimal {
	if d.cfg.Classification == ClassifyByFeedSign {
		return amount.Neg()
	}
	return amount.Abs().Neg()
}

func (d *Detector) isExcluded(name string) bool {
	lower := strings.ToLower(name)
	for _, merchant := range d.excluded {
		if strings.Contains(lower, merchant) {
			return true
		}
	}
	return false
}
