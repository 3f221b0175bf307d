package domain

import "time"

// Days after delivery during which a merchant may still request a
// cancellation or a deadline extension. The window closes at the end of
// the seventh day, inclusive.
const requestWindowDays = 7

// How many whole months after the delivery month the extended deadline lands.
const extensionMonths = 2

// RequestWindowEnd returns the last instant at which a cancellation or
// extension request is still accepted: deliveredAt + 7 days, at 23:59:59
// local time. Always derived from deliveredAt, never from "now".
func RequestWindowEnd(deliveredAt time.Time, loc *time.Location) time.Time {
	local := deliveredAt.In(loc)
	day := local.AddDate(0, 0, requestWindowDays)
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
}

// WithinRequestWindow reports whether now falls inside the request window
// for the given delivery time.
func WithinRequestWindow(deliveredAt, now time.Time, loc *time.Location) bool {
	return !now.After(RequestWindowEnd(deliveredAt, loc))
}

// ExtendedDeadline returns the deadline granted by an approved extension:
// the last calendar day of the month two months after the delivery month,
// at 23:59:59 local time. Independent of when the extension was requested.
func ExtendedDeadline(deliveredAt time.Time, loc *time.Location) time.Time {
	local := deliveredAt.In(loc)
	// First day of the month after the target month, minus one day, gives
	// the last day of the target month without overflow surprises.
	firstOfNext := time.Date(local.Year(), local.Month()+extensionMonths+1, 1, 0, 0, 0, 0, loc)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, 0, loc)
}

// InitialDeadline returns the working deadline stamped on a fresh
// assignment: the end of the request window.
func InitialDeadline(deliveredAt time.Time, loc *time.Location) time.Time {
	return RequestWindowEnd(deliveredAt, loc)
}
