package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/prescripto/prescripto/internal/logger"
)

var (
	// ErrNetworkFailure is returned when a backend request could not complete
	ErrNetworkFailure = errors.New("network failure")
	// ErrServerRejected matches any *ServerRejectedError via errors.Is
	ErrServerRejected = errors.New("request rejected by server")
	// ErrNotAuthenticated is returned when no valid session token is present
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoSlotSelected is returned when a booking is submitted without a chosen slot
	ErrNoSlotSelected = errors.New("no slot selected")
	// ErrNotFound is returned when the requested doctor is absent from the listing
	ErrNotFound = errors.New("not found")
	// ErrSlotUnavailable is returned when selecting a slot that is booked or not offered
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// ServerRejectedError is a response that explicitly reported failure
type ServerRejectedError struct {
	Status  int
	Message string
}

func (e *ServerRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", ErrServerRejected, e.Status)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrServerRejected) match.
func (e *ServerRejectedError) Is(target error) bool {
	return target == ErrServerRejected
}

// Rejected builds a ServerRejectedError.
func Rejected(status int, message string) error {
	return &ServerRejectedError{Status: status, Message: message}
}

// Network wraps a transport failure so it matches ErrNetworkFailure.
func Network(err error) error {
	return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
}

// UserMessage returns the text of the transient notification shown for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rejected *ServerRejectedError
	switch {
	case errors.As(err, &rejected):
		if rejected.Message != "" {
			return rejected.Message
		}
		return "The server rejected the request"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in to continue"
	case errors.Is(err, ErrNoSlotSelected):
		return "Select a time slot first"
	case errors.Is(err, ErrSlotUnavailable):
		return "That slot is no longer available"
	case errors.Is(err, ErrNotFound):
		return "Doctor not found"
	case errors.Is(err, ErrNetworkFailure):
		return "Failed to connect to server"
	default:
		return err.Error()
	}
}

// ActionMessage is UserMessage with the login prompt naming what the user was
// trying to do, e.g. "book an appointment".
func ActionMessage(err error, action string) string {
	if errors.Is(err, ErrNotAuthenticated) && action != "" {
		return "Login to " + action
	}
	return UserMessage(err)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
