package models

import "time"

// Slot is a single 30-minute bookable interval
type Slot struct {
	DateKey  string    `json:"date_key"` // day_month_year, no zero padding
	Start    time.Time `json:"start"`
	Time     string    `json:"time"` // HH:MM, 24-hour
	IsBooked bool      `json:"is_booked"`
}

// DaySlots holds the generated slots of one calendar day
type DaySlots struct {
	Date    time.Time `json:"date"`
	DateKey string    `json:"date_key"`
	Slots   []Slot    `json:"slots"`
}

// Available returns the slots that are not booked.
func (d DaySlots) Available() []Slot {
	var out []Slot
	for _, s := range d.Slots {
		if !s.IsBooked {
			out = append(out, s)
		}
	}
	return out
}

// Selection is the user's current slot choice in an appointment view
type Selection struct {
	DayIndex int    `json:"day_index"`
	Time     string `json:"time"` // HH:MM
}

// Empty reports whether no slot time has been chosen.
func (s Selection) Empty() bool {
	return s.Time == ""
}

// BookingRequest is submitted once per user action and is not idempotent
type BookingRequest struct {
	DoctorID string `json:"docId"`
	SlotDate string `json:"slotDate"`
	SlotTime string `json:"slotTime"`
}
