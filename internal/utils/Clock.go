package utils

import "time"

// Clock supplies the reference instant for "today" so forecasts can be reproduced in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{FixedNow: now}
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// Advance moves the clock forward by the given number of calendar days.
func (m *MockClock) Advance(days int) {
	y, mo, d := m.FixedNow.Date()
	h, mi, s := m.FixedNow.Clock()
	m.FixedNow = time.Date(y, mo, d+days, h, mi, s, m.FixedNow.Nanosecond(), m.FixedNow.Location())
}
