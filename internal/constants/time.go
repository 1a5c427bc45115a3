package constants

import "time"

const (
	// TimeFormat is the slot time format exchanged with the backend (HH:MM, 24-hour)
	TimeFormat = "15:04"

	// DateFormat is the calendar date format used for birthdays and --date flags
	DateFormat = "2006-01-02"

	// DisplayTimeFormat is the 12-hour format shown to users
	DisplayTimeFormat = "3:04 PM"

	// DateKeySeparator joins day, month and year in a date key (e.g. 5_6_2025)
	DateKeySeparator = "_"

	// Booking window constants
	WindowDays      = 7
	SlotStep        = 30 * time.Minute
	DayOpenHour     = 10
	DayCloseHour    = 21
	SameDayLeadTime = time.Hour

	// DefaultRefreshInterval is how often an open appointment view re-fetches availability
	DefaultRefreshInterval = 30 * time.Second
)
