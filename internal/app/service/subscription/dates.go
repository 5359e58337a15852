package subscription

import (
	"time"

	"github.com/coursemint/settlement/pkg/types"
)

// AddMonths advances t by the given number of calendar months with
// day-of-month clamping: 2024-01-31 + 1 month = 2024-02-29. This differs from
// time.AddDate, which normalizes the overflow into the next month
// (2024-01-31 + 1 month = 2024-03-02).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	total := int(m) - 1 + months
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)

	if last := daysIn(ty, month); d > last {
		d = last
	}

	h, min, sec := t.Clock()
	return time.Date(ty, month, d, h, min, sec, t.Nanosecond(), t.Location())
}

// AdvanceByInterval returns start advanced by one billing period.
func AdvanceByInterval(start time.Time, interval types.PlanInterval) time.Time {
	months, years := interval.Offset()
	return AddMonths(start, months+years*12)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
