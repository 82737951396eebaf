package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClock(t *testing.T) {
	start := time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)
	assert.Equal(t, start, clock.Now())

	clock.Advance(1)
	assert.Equal(t, time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC), clock.Now())

	clock.SetNow(start)
	clock.Advance(-31)
	assert.Equal(t, time.Date(2024, 12, 31, 9, 30, 0, 0, time.UTC), clock.Now())
}
