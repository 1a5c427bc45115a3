package api

import (
	"context"

	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
)

type messageResponse struct {
	Message string `json:"message"`
}

type appointmentsResponse struct {
	Appointments []models.Appointment `json:"appointments"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointmentId"`
}

// BookAppointment submits a booking. It is not idempotent; the backend
// rejects a slot that was taken in the meantime.
func (c *Client) BookAppointment(ctx context.Context, token string, req models.BookingRequest) (string, error) {
	if token == "" {
		return "", apperr.ErrNotAuthenticated
	}
	var resp messageResponse
	if err := c.postJSON(ctx, "/api/user/book-appointment", token, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListAppointments returns the user's appointments, newest first.
func (c *Client) ListAppointments(ctx context.Context, token string) ([]models.Appointment, error) {
	if token == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	var resp appointmentsResponse
	if err := c.getJSON(ctx, "/api/user/appointments", token, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Appointment, len(resp.Appointments))
	for i, a := range resp.Appointments {
		out[len(out)-1-i] = a
	}
	return out, nil
}

// CancelAppointment cancels one of the user's appointments.
func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) (string, error) {
	if token == "" {
		return "", apperr.ErrNotAuthenticated
	}
	var resp messageResponse
	if err := c.postJSON(ctx, "/api/user/cancel-appointment", token, cancelRequest{AppointmentID: appointmentID}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
