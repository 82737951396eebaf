// Package recurrence finds monthly patterns in imported transactions and expands
// recurring rules into dated occurrences.
package recurrence

import (
	"errors"

	"github.com/forecastly/forecastly/pkg/event"
)

// ErrMalformedRecord marks a transaction or rule that is missing a required field.
// Batch operations skip such records and report them instead of failing.
var ErrMalformedRecord = errors.New("malformed record")

// ErrUnsupportedFrequency is returned for rules whose cadence cannot be expanded.
var ErrUnsupportedFrequency = event.ErrUnsupportedFrequency
