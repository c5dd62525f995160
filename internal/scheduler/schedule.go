package scheduler

import "time"

// NextRun returns the first instant strictly after now at which the wall
// clock in loc reads dailyAt past midnight.
func NextRun(now time.Time, dailyAt time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()

	hours := int(dailyAt / time.Hour)
	minutes := int((dailyAt % time.Hour) / time.Minute)
	next := time.Date(y, m, d, hours, minutes, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(y, m, d+1, hours, minutes, 0, 0, loc)
	}
	return next
}
