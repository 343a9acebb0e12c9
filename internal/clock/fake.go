package clock

import "time"

// FakeClock is a manually driven Clock for tests.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Set(t time.Time) {
	c.now = t.UTC()
}

// AdvanceMonths moves the clock by whole calendar months.
func (c *FakeClock) AdvanceMonths(n int) {
	c.now = c.now.AddDate(0, n, 0)
}

var _ Clock = (*FakeClock)(nil)
