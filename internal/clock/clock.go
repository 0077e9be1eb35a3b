package clock

import "time"

// Clock abstracts wall time so due-date and overdue logic can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Today truncates the clock's current instant to a UTC calendar date.
func Today(c Clock) time.Time {
	var now time.Time
	if c == nil {
		now = time.Now().UTC()
	} else {
		now = c.Now().UTC()
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
