// Package clock abstracts the time operations the bot schedules on, so
// reconnect timing can be driven deterministically in tests.
package clock

import "time"

// Clock is injected wherever production code would call time.Now or
// time.AfterFunc directly.
type Clock interface {
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (Real) or
	// synchronously during Advance (Fake).
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call. It returns false if the call already ran
	// or was already stopped.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
