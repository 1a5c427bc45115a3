package constants

const (
	SettingCurrencySymbol       = "currency_symbol"
	SettingRefreshIntervalSec   = "refresh_interval_sec"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingTimezone             = "timezone"

	// Default Settings Values
	DefaultCurrencySymbol       = "₹"
	DefaultRefreshIntervalSec   = 30
	DefaultNotificationsEnabled = true
	DefaultTimezone             = "Local" // Use system local timezone by default
)
