package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prescripto/prescripto/internal/constants"
)

var monthAbbrev = [...]string{"", "JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// DateKey formats a date as day_month_year with a 1-based month and no zero padding.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%d%s%d%s%d", t.Day(), constants.DateKeySeparator, int(t.Month()), constants.DateKeySeparator, t.Year())
}

// ParseDateKey parses a day_month_year key into midnight of that date in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(key, constants.DateKeySeparator)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date key %q: expected day_month_year", key)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date key %q: out of range", key)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date key %q: no such day", key)
	}
	return t, nil
}

// FormatDateKey renders a date key for display, e.g. "5 JUN 2025".
// Keys that do not parse are returned unchanged.
func FormatDateKey(key string) string {
	t, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthAbbrev[t.Month()], t.Year())
}

// ClockTime formats the hour and minute of t as HH:MM.
func ClockTime(t time.Time) string {
	return t.Format(constants.TimeFormat)
}

// ParseClockTime parses an HH:MM string.
func ParseClockTime(s string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, s)
}

// ValidateClockTime checks if the string matches the HH:MM format.
func ValidateClockTime(s string) bool {
	_, err := ParseClockTime(s)
	return err == nil
}

// To12Hour converts an HH:MM time to a 12-hour display string such as "2:30 PM".
// Invalid input is returned unchanged.
func To12Hour(hhmm string) string {
	t, err := ParseClockTime(hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format(constants.DisplayTimeFormat)
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
