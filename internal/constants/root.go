package constants

import "time"

// SessionState represents the current view of the TUI application
type SessionState int

// BookingState represents the lifecycle of a single appointment view
type BookingState int

const (
	AppName            = "prescripto"
	DefaultKeyringUser = "session-token"
	DefaultConfigDir   = "~/.config/prescripto"
	DefaultConfigPath  = "~/.config/prescripto/config.yaml"
	DefaultDBPath      = "~/.config/prescripto/prescripto.db"
	DefaultBackendURL  = "http://localhost:4000"
	Version            = "v0.3.0"

	// TokenHeader is the request header carrying the session token
	TokenHeader     = "token"
	RequestIDHeader = "X-Request-ID"

	// DefaultRequestTimeout bounds a single backend round trip
	DefaultRequestTimeout = 15 * time.Second

	// Log file rotation
	LogDirName    = "logs"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// Profile image constraints
	MaxProfileImageBytes = 5 * 1024 * 1024

	// Notify constants
	NotifierLockfileName   = "prescripto-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.prescripto.tray"
	TrayExecutablePrefix   = "prescripto-tray"
	TraySecretHeader       = "X-Prescripto-Secret"
)

// Session States
const (
	StateDoctors SessionState = iota
	StateAppointment
	StateMyAppointments
	StateProfile
	StateLogin
	StateEditProfile
	StateConfirmCancel
)

const (
	BookingLoading BookingState = iota
	BookingReady
	BookingSubmitting
	BookingError
)

func (s BookingState) String() string {
	switch s {
	case BookingLoading:
		return "loading"
	case BookingReady:
		return "ready"
	case BookingSubmitting:
		return "booking"
	case BookingError:
		return "error"
	default:
		return "unknown"
	}
}

// Specialities lists the specialities offered by the directory filter.
var Specialities = []string{
	"General physician",
	"Gynecologist",
	"Dermatologist",
	"Pediatricians",
	"Neurologist",
	"Gastroenterologist",
}

// Genders are the values the profile form accepts.
var Genders = []string{"Not Selected", "Male", "Female"}
