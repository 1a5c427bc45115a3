package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Address is a two-line postal address as the backend stores it
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// BookedSlots maps a date key (day_month_year) to the HH:MM start times already taken.
// A nil map means the backend omitted the field.
type BookedSlots map[string][]string

// Has reports whether the HH:MM time is booked on the given date key.
func (b BookedSlots) Has(dateKey, hhmm string) bool {
	hour, minute, ok := parseHourMinute(hhmm)
	if !ok {
		return false
	}
	return b.HasAt(dateKey, hour, minute)
}

// HasAt matches entries by hour and minute, so "8:00" and "08:00:00" both
// mark 08:00. Entries that do not parse never match.
func (b BookedSlots) HasAt(dateKey string, hour, minute int) bool {
	for _, t := range b[dateKey] {
		h, m, ok := parseHourMinute(t)
		if ok && h == hour && m == minute {
			return true
		}
	}
	return false
}

// parseHourMinute reads "H:MM", "HH:MM" or "HH:MM:SS"; seconds are ignored.
func parseHourMinute(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}

// Doctor is a directory entry together with its current booking map
type Doctor struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Email       string      `json:"email,omitempty"`
	Image       string      `json:"image"`
	Speciality  string      `json:"speciality"`
	Degree      string      `json:"degree"`
	Experience  string      `json:"experience"`
	About       string      `json:"about"`
	Available   bool        `json:"available"`
	Fees        float64     `json:"fees"`
	Address     Address     `json:"address"`
	SlotsBooked BookedSlots `json:"slots_booked,omitempty"`

	// fields records the JSON keys present when the record was decoded.
	// A nil set means the record was built in code and every field counts as present.
	fields map[string]struct{}
}

// UnmarshalJSON decodes a doctor and remembers which keys the payload carried.
func (d *Doctor) UnmarshalJSON(data []byte) error {
	type alias Doctor
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Doctor(a)
	d.fields = make(map[string]struct{}, len(raw))
	for k, v := range raw {
		// null overrides like any value, except for the booking map where it means absent
		if k == "slots_booked" && string(v) == "null" {
			continue
		}
		d.fields[k] = struct{}{}
	}
	return nil
}

// HasField reports whether the JSON key was present when the record was decoded.
func (d Doctor) HasField(key string) bool {
	if d.fields == nil {
		if key == "slots_booked" {
			return d.SlotsBooked != nil
		}
		return true
	}
	_, ok := d.fields[key]
	return ok
}

// ClearFieldSet drops the decode-time presence information so that every field counts as present.
func (d *Doctor) ClearFieldSet() {
	d.fields = nil
}
