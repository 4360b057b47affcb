package usecase

import "time"

// Clock returns the current time. Every usecase works in UTC.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c().UTC()
}
