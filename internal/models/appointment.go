package models

// Appointment is a booking owned by the signed-in user
type Appointment struct {
	ID          string      `json:"_id"`
	UserID      string      `json:"userId"`
	DoctorID    string      `json:"docId"`
	SlotDate    string      `json:"slotDate"` // day_month_year
	SlotTime    string      `json:"slotTime"` // HH:MM
	UserData    UserProfile `json:"userData"`
	DoctorData  Doctor      `json:"docData"`
	Amount      float64     `json:"amount"`
	Date        int64       `json:"date"` // unix millis at booking time
	Cancelled   bool        `json:"cancelled"`
	Payment     bool        `json:"payment"`
	IsCompleted bool        `json:"isCompleted"`
}

// Active reports whether the appointment can still be cancelled.
func (a Appointment) Active() bool {
	return !a.Cancelled && !a.IsCompleted
}

// Status returns a short label for list rendering.
func (a Appointment) Status() string {
	switch {
	case a.Cancelled:
		return "cancelled"
	case a.IsCompleted:
		return "completed"
	case a.Payment:
		return "paid"
	default:
		return "upcoming"
	}
}
