package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Time only moves on Advance.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock. AfterFunc callbacks run
// synchronously inside Advance, in deadline order. Do not call Advance
// from within a callback.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	callback func()
	stopped  bool
	fired    bool
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	w := &fakeWaiter{deadline: c.current.Add(d), callback: f}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return &fakeTimer{clock: c, waiter: w}
}

// Advance moves time forward by d and runs every callback whose deadline
// has been reached, including ones scheduled by callbacks during this call.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.collectDue(target)
		if len(due) == 0 {
			return
		}
		for _, w := range due {
			w.callback()
		}
	}
}

// Pending reports how many callbacks are scheduled and not stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			n++
		}
	}
	return n
}

// NextDeadline returns the earliest pending deadline.
func (c *FakeClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var next time.Time
	found := false
	for _, w := range c.waiters {
		if w.stopped || w.fired {
			continue
		}
		if !found || w.deadline.Before(next) {
			next = w.deadline
			found = true
		}
	}
	return next, found
}

func (c *FakeClock) collectDue(target time.Time) []*fakeWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, remaining []*fakeWaiter
	for _, w := range c.waiters {
		if w.stopped || w.fired {
			continue
		}
		if !w.deadline.After(target) {
			w.fired = true
			due = append(due, w)
			continue
		}
		remaining = append(remaining, w)
	}
	c.waiters = remaining
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	return due
}

type fakeTimer struct {
	clock  *FakeClock
	waiter *fakeWaiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.waiter.stopped || t.waiter.fired {
		return false
	}
	t.waiter.stopped = true
	return true
}
