package utils

import "time"

// MonthWindow returns the half-open UTC interval [start of now's calendar
// month, start of the next month). Quota counting always uses this window so
// every check agrees on the same clock and timezone.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
