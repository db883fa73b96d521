package services

import "time"

// Clock returns the current time. The zero value uses the wall clock in UTC.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}
