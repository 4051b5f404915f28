package services

import "time"

// Clock is injected everywhere the engine needs "now", so timeouts,
// windows, and recurrences are deterministically testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a test Clock that always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (f FixedClock) Now() time.Time { return f.At }
