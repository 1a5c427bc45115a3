package booking

import (
	"context"
	"fmt"
	"sync"

	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
)

// Appointments is the "my appointments" list. Like the slot grid it is
// only ever replaced by a re-fetch, never patched after a cancel.
type Appointments struct {
	mu      sync.Mutex
	backend Backend
	session Session

	items      []models.Appointment
	loaded     bool
	cancelling string
}

func NewAppointments(backend Backend, session Session) *Appointments {
	return &Appointments{backend: backend, session: session}
}

// Load fetches the user's appointments, newest first.
func (a *Appointments) Load(ctx context.Context) error {
	token := a.session.Token()
	if token == "" {
		return apperr.ErrNotAuthenticated
	}

	items, err := a.backend.ListAppointments(ctx, token)
	if err != nil {
		logger.Warn("failed to load appointments", "error", err)
		return err
	}

	a.mu.Lock()
	a.items = items
	a.loaded = true
	a.mu.Unlock()
	return nil
}

// Items returns the last fetched list.
func (a *Appointments) Items() []models.Appointment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Appointment(nil), a.items...)
}

// Loaded reports whether a fetch has completed.
func (a *Appointments) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Find returns the appointment with the given id from the last fetch.
func (a *Appointments) Find(id string) (models.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, appt := range a.items {
		if appt.ID == id {
			return appt, nil
		}
	}
	return models.Appointment{}, fmt.Errorf("%w: appointment %s", apperr.ErrNotFound, id)
}

// Cancelling returns the id of the appointment being cancelled, if any.
func (a *Appointments) Cancelling() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelling
}

// CancelAppointment cancels one appointment and then re-fetches the list.
func (a *Appointments) CancelAppointment(ctx context.Context, id string) (string, error) {
	token := a.session.Token()
	if token == "" {
		return "", apperr.ErrNotAuthenticated
	}

	a.mu.Lock()
	if a.cancelling != "" {
		a.mu.Unlock()
		return "", ErrBusy
	}
	a.cancelling = id
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.cancelling = ""
		a.mu.Unlock()
	}()

	logger.Info("cancelling appointment", "appointment", id)
	msg, err := a.backend.CancelAppointment(ctx, token, id)
	if err != nil {
		logger.Warn("cancel failed", "appointment", id, "error", err)
		return "", err
	}

	if err := a.Load(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}
