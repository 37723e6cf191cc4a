package movement

import "time"

// Clock measures time between ticks.
type Clock struct {
	now  func() time.Time
	last time.Time
}

// NewClock uses time.Now when now is nil. time.Now carries a monotonic reading.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Tick returns the time since the previous tick, or zero on the first one.
func (c *Clock) Tick() time.Duration {
	t := c.now()
	if c.last.IsZero() {
		c.last = t
		return 0
	}
	dt := t.Sub(c.last)
	c.last = t
	if dt < 0 {
		return 0
	}
	return dt
}
