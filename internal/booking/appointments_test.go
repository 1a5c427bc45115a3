package booking

import (
	"context"
	"errors"
	"testing"

	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
)

func TestAppointmentsLoad(t *testing.T) {
	b := &stubBackend{appointments: []models.Appointment{
		{ID: "a2", SlotDate: "6_6_2025", SlotTime: "10:00"},
		{ID: "a1", SlotDate: "5_6_2025", SlotTime: "11:00"},
	}}
	list := NewAppointments(b, staticSession("tok"))

	if list.Loaded() {
		t.Error("expected not loaded before Load")
	}
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	items := list.Items()
	if len(items) != 2 || items[0].ID != "a2" {
		t.Errorf("expected backend order preserved, got %+v", items)
	}

	if _, err := list.Find("a1"); err != nil {
		t.Errorf("Find failed: %v", err)
	}
	if _, err := list.Find("zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentsRequireSession(t *testing.T) {
	b := &stubBackend{}
	list := NewAppointments(b, staticSession(""))

	if err := list.Load(context.Background()); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("Load: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := list.CancelAppointment(context.Background(), "a1"); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("Cancel: expected ErrNotAuthenticated, got %v", err)
	}
	if b.apptCalls != 0 || b.cancelCalls != 0 {
		t.Errorf("expected no requests, got list=%d cancel=%d", b.apptCalls, b.cancelCalls)
	}
}

func TestCancelRefetches(t *testing.T) {
	b := &stubBackend{appointments: []models.Appointment{{ID: "a1"}}}
	list := NewAppointments(b, staticSession("tok"))
	ctx := context.Background()

	if err := list.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := list.CancelAppointment(ctx, "a1"); err != nil {
		t.Fatalf("CancelAppointment failed: %v", err)
	}
	if b.apptCalls != 2 {
		t.Errorf("expected a re-fetch after cancel, got %d list calls", b.apptCalls)
	}
	if !list.Items()[0].Cancelled {
		t.Error("expected cancelled flag from the re-fetched list")
	}
	if list.Cancelling() != "" {
		t.Error("expected cancelling marker cleared")
	}
}

func TestCancelFailureKeepsList(t *testing.T) {
	b := &stubBackend{appointments: []models.Appointment{{ID: "a1"}}}
	list := NewAppointments(b, staticSession("tok"))
	ctx := context.Background()

	if err := list.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b.cancelErr = apperr.Rejected(200, "Unauthorized action")

	if _, err := list.CancelAppointment(ctx, "a1"); !errors.Is(err, apperr.ErrServerRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if b.apptCalls != 1 {
		t.Errorf("expected no re-fetch after failed cancel, got %d list calls", b.apptCalls)
	}
	if list.Items()[0].Cancelled {
		t.Error("list must not be patched on failure")
	}
}
