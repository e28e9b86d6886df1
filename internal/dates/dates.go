// Package dates parses date-like values and performs calendar arithmetic with
// the semantics form authors expect: month and year steps clamp to the end of
// the target month and differences count whole elapsed units.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Now is the sentinel string meaning "the current instant".
const Now = "now"

// Step is the calendar unit used by date arithmetic.
type Step string

const (
	Day   Step = "day"
	Week  Step = "week"
	Month Step = "month"
	Year  Step = "year"
)

// ErrInvalidDate is returned for values that are not a date, "now" or an
// ISO-8601 string.
var ErrInvalidDate = errors.New("dates: invalid date")

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Parse converts a date-like value into a time.Time. now supplies the current
// instant for the "now" sentinel.
func Parse(value any, now func() time.Time) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrInvalidDate
		}
		return v, nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, ErrInvalidDate
		}
		return *v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == Now {
			if now == nil {
				return time.Now(), nil
			}
			return now(), nil
		}
		return ParseISO(trimmed)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrInvalidDate, value)
	}
}

// ParseISO parses the ISO-8601 forms commonly produced by date inputs.
// Values without a zone are interpreted in UTC.
func ParseISO(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// ParseStep validates a step name.
func ParseStep(raw string) (Step, error) {
	switch Step(strings.ToLower(strings.TrimSpace(raw))) {
	case Day:
		return Day, nil
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	case Year:
		return Year, nil
	default:
		return "", fmt.Errorf("dates: unknown step %q", raw)
	}
}

// Add moves t by amount steps. Month and year steps keep the day of month
// when possible and clamp to the last day otherwise.
func Add(t time.Time, amount int, step Step) time.Time {
	switch step {
	case Day:
		return t.AddDate(0, 0, amount)
	case Week:
		return t.AddDate(0, 0, 7*amount)
	case Month:
		return addMonths(t, amount)
	case Year:
		return addMonths(t, 12*amount)
	default:
		return t
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Difference returns the number of whole steps between a and b (a - b),
// truncated toward zero.
func Difference(a, b time.Time, step Step) int {
	switch step {
	case Day:
		return days(a, b)
	case Week:
		return days(a, b) / 7
	case Month:
		return months(a, b)
	case Year:
		return months(a, b) / 12
	default:
		return 0
	}
}

func days(a, b time.Time) int {
	return int(a.Sub(b).Hours() / 24)
}

func months(a, b time.Time) int {
	sign := 1
	if a.Before(b) {
		a, b = b, a
		sign = -1
	}
	diff := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
	// the last month only counts once a has reached b's position in it
	if diff > 0 && Add(b, diff, Month).After(a) {
		diff--
	}
	return sign * diff
}
