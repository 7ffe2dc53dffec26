package clock

import "time"

// Clock is the injectable time source. Session expiry and abandonment
// judgments all read time through it so tests can steer the clock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New returns the system-clock implementation
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
