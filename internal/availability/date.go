package availability

import (
	"fmt"
	"time"
)

// Date is a calendar date in "YYYY-MM-DD" form, compared date-only with no
// time-of-day component.
type Date string

const dateLayout = "2006-01-02"

// NewDate truncates a time to its calendar date in that time's location.
func NewDate(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("availability: invalid date %q: %w", s, err)
	}
	return NewDate(t), nil
}

// Time returns midnight of the date in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Before reports whether d is strictly earlier than other. Lexicographic
// comparison is correct for the fixed layout.
func (d Date) Before(other Date) bool {
	return string(d) < string(other)
}

func (d Date) String() string { return string(d) }

// MonthWindow returns the inclusive date range covering the visible month
// plus lookaheadMonths further months, used for calendar overview fetches.
func MonthWindow(visible time.Time, lookaheadMonths int) (Date, Date) {
	if lookaheadMonths < 0 {
		lookaheadMonths = 0
	}
	start := time.Date(visible.Year(), visible.Month(), 1, 0, 0, 0, 0, visible.Location())
	end := start.AddDate(0, lookaheadMonths+1, -1)
	return NewDate(start), NewDate(end)
}
