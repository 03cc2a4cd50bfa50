package shared

import (
	"errors"
	"strings"
	"time"
)

// PeriodLayout is the canonical pay period format.
const PeriodLayout = "2006-01"

// ErrInvalidPeriod indicates a period string that is not YYYY-MM.
var ErrInvalidPeriod = errors.New("period must be formatted as YYYY-MM")

// ParsePeriod parses a YYYY-MM pay period into the first day of that month (UTC).
func ParsePeriod(raw string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return t.UTC(), nil
}

// FormatPeriod renders t as YYYY-MM.
func FormatPeriod(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}
