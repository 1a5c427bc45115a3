package models

import "time"

// Settings represents persisted user preferences
type Settings struct {
	CurrencySymbol       string `json:"currency_symbol"`       // prefix for fee display, e.g. "₹"
	RefreshIntervalSec   int    `json:"refresh_interval_sec"`  // appointment view re-fetch period
	NotificationsEnabled bool   `json:"notifications_enabled"` // whether tray notifications are sent
	Timezone             string `json:"timezone"`              // IANA timezone name or "Local"
}

// RefreshInterval returns the refresh period as a duration.
func (s Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSec) * time.Second
}
