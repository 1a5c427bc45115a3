package models

// UserProfile is the signed-in patient's record
type UserProfile struct {
	ID      string  `json:"_id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
	Gender  string  `json:"gender"`
	DOB     string  `json:"dob"`
	Image   string  `json:"image,omitempty"`
}
