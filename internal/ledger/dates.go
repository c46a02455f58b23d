package ledger

import (
	"fmt"
	"time"

	"github.com/pigeonworks-llc/fintrack/internal/models"
)

// dateFormat is the wire format for all entity dates.
const dateFormat = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// addMonthsClamped adds months to a date, clamping the day to the length
// of the target month so that e.g. Jan 31 + 1 month = Feb 28 (or 29),
// never Mar 2/3 as time.AddDate would produce.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if m < 1 {
		m += 12
		year--
	}
	last := daysInMonth(year, time.Month(m))
	if day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addPeriods advances a date by n periods of the given frequency.
// Month-based frequencies clamp to month length relative to the base date,
// so installment schedules anchored on the 31st stay on month ends.
func addPeriods(t time.Time, freq models.Frequency, n int) time.Time {
	switch freq {
	case models.FrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	case models.FrequencyQuarterly:
		return addMonthsClamped(t, 3*n)
	case models.FrequencyYearly:
		return addMonthsClamped(t, 12*n)
	default: // monthly
		return addMonthsClamped(t, n)
	}
}
