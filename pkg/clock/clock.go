// Package clock provides the wall clock used to anchor scan windows and poll loops
package clock

import "time"

// SystemClock reads the real wall clock
type SystemClock struct{}

// After returns a channel that fires once d has elapsed
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time in UTC
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock frozen at a single instant whose After channel is driven by the caller
type Fixed struct {
	At   time.Time
	Tick chan time.Time
}

// NewFixed returns a Fixed clock at t with a buffered tick channel
func NewFixed(t time.Time) *Fixed {
	return &Fixed{At: t, Tick: make(chan time.Time, 10)}
}

// After ignores d and returns the caller-driven tick channel
func (f *Fixed) After(_ time.Duration) <-chan time.Time {
	return f.Tick
}

// Now returns the frozen instant
func (f *Fixed) Now() time.Time {
	return f.At
}
