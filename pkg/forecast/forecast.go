// Package forecast runs the balance forecasting pipeline for the current user: it merges
// user events, imported bank transactions and expanded recurring rules, then simulates
// the resulting balance.
package forecast

import (
	"fmt"
	"time"

	"github.com/forecastly/forecastly/internal/config"
	"github.com/forecastly/forecastly/pkg/recurrence"
	"github.com/forecastly/forecastly/pkg/simulation"
	"github.com/shopspring/decimal"
)

// CalendarWeeks is the number of weeks shown by a calendar grid.
const CalendarWeeks = 6

type Config struct {
	HorizonMonths       int
	ExpandFutureRules   bool
	LowBalanceThreshold decimal.Decimal
	Detector            recurrence.DetectorConfig
}

func DefaultConfig() Config {
	return Config{
		HorizonMonths:       recurrence.DefaultHorizonMonths,
		LowBalanceThreshold: decimal.Zero,
		Detector:            recurrence.DefaultDetectorConfig(),
	}
}

func NewConfig(cfg config.Application) (Config, error) {
	threshold, err := decimal.NewFromString(cfg.Forecast.LowBalanceThreshold)
	if err != nil {
		return Config{}, fmt.Errorf("invalid low balance threshold %q: %w", cfg.Forecast.LowBalanceThreshold, err)
	}
	detector, err := recurrence.NewDetectorConfig(cfg.Detector)
	if err != nil {
		return Config{}, err
	}
	horizon := cfg.Forecast.HorizonMonths
	if horizon <= 0 {
		horizon = recurrence.DefaultHorizonMonths
	}
	return Config{
		HorizonMonths:       horizon,
		ExpandFutureRules:   cfg.Forecast.ExpandFutureRules,
		LowBalanceThreshold: threshold,
		Detector:            detector,
	}, nil
}

// Calendar is the simulated grid of one month. Days before today are not part of Entries.
type Calendar struct {
	Month     time.Time
	GridStart time.Time
	GridEnd   time.Time
	Base      decimal.Decimal
	Entries   []simulation.BalanceEntry
	Summary   simulation.Summary
	// Skipped counts malformed transactions and rules left out of the forecast.
	Skipped int
}

type Projection struct {
	simulation.Projection
	Base    decimal.Decimal
	Summary simulation.Summary
	Skipped int
}
