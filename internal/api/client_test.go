package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prescripto/prescripto/internal/api/apitest"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
)

// pngHeader is enough for mimetype to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func setup(t *testing.T) (*apitest.Server, *Client) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return srv, New(srv.URL, 5*time.Second)
}

func TestListDoctors(t *testing.T) {
	srv, c := setup(t)
	srv.AddDoctor(models.Doctor{
		ID:          "doc1",
		Name:        "Dr. Richard James",
		Speciality:  "General physician",
		Fees:        50,
		Available:   true,
		SlotsBooked: models.BookedSlots{"5_6_2025": {"10:00"}},
	})
	srv.AddDoctor(models.Doctor{ID: "doc2", Name: "Dr. Emily Larson"})

	docs, err := c.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("ListDoctors failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 doctors, got %d", len(docs))
	}
	if !docs[0].SlotsBooked.Has("5_6_2025", "10:00") {
		t.Errorf("expected booked slot to round-trip, got %v", docs[0].SlotsBooked)
	}
	if !docs[1].HasField("slots_booked") {
		t.Error("expected empty slots_booked to be reported as present")
	}

	id := srv.LastRequestID("/api/doctor/list")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a uuid request id, got %q", id)
	}
}

func TestListDoctorsOmittedSlots(t *testing.T) {
	srv, c := setup(t)
	srv.AddDoctor(models.Doctor{ID: "doc1", SlotsBooked: models.BookedSlots{"5_6_2025": {"10:00"}}})
	srv.OmitSlots(true)

	docs, err := c.ListDoctors(context.Background())
	if err != nil {
		t.Fatalf("ListDoctors failed: %v", err)
	}
	if docs[0].HasField("slots_booked") {
		t.Error("expected slots_booked to be reported absent")
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		target error
	}{
		{"rejected with message", http.StatusOK, "Doctor not available", apperr.ErrServerRejected},
		{"bad request", http.StatusBadRequest, "bad", apperr.ErrServerRejected},
		{"server error without message", http.StatusInternalServerError, "", apperr.ErrServerRejected},
		{"unauthorized", http.StatusUnauthorized, "Not Authorized", apperr.ErrNotAuthenticated},
		{"forbidden", http.StatusForbidden, "", apperr.ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, c := setup(t)
			srv.FailNext("/api/doctor/list", tt.status, tt.msg)

			_, err := c.ListDoctors(context.Background())
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}

			var rej *apperr.ServerRejectedError
			if errors.As(err, &rej) {
				if rej.Status != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, rej.Status)
				}
				if tt.msg != "" && rej.Message != tt.msg {
					t.Errorf("expected message %q, got %q", tt.msg, rej.Message)
				}
			}
		})
	}
}

func TestNonJSONResponseLogged(t *testing.T) {
	saved := logger.Logger
	defer func() { logger.Logger = saved }()
	if err := logger.Init(logger.Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("logger init failed: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ListDoctors(context.Background())
	if !errors.Is(err, apperr.ErrServerRejected) {
		t.Fatalf("expected ErrServerRejected, got %v", err)
	}

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	for _, want := range []string{"undecodable response", "request_id"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in log:\n%s", want, data)
		}
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := apitest.New()
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.ListDoctors(context.Background())
	if !errors.Is(err, apperr.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	_, c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListDoctors(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoginAndRegister(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("Ana", "ana@example.com", "password123")
	ctx := context.Background()

	token, err := c.Login(ctx, "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}

	if _, err := c.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, apperr.ErrServerRejected) {
		t.Errorf("expected rejection for bad password, got %v", err)
	}

	if _, err := c.Register(ctx, "Ana", "ana@example.com", "password123"); !errors.Is(err, apperr.ErrServerRejected) {
		t.Errorf("expected rejection for duplicate email, got %v", err)
	}

	token, err = c.Register(ctx, "Ben", "ben@example.com", "password456")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	p, err := c.GetProfile(ctx, token)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Email != "ben@example.com" {
		t.Errorf("expected ben's profile, got %+v", p)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("Ana", "ana@example.com", "password123")
	token := srv.TokenFor("ana@example.com")
	ctx := context.Background()

	p, err := c.GetProfile(ctx, token)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	p.Phone = "555-0100"
	p.Gender = "Female"
	p.DOB = "1990-04-01"
	p.Address = models.Address{Line1: "1 Main St", Line2: "Springfield"}

	if err := c.UpdateProfile(ctx, token, p); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := c.GetProfile(ctx, token)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.Phone != "555-0100" || got.Address.Line1 != "1 Main St" {
		t.Errorf("profile not updated: %+v", got)
	}
}

func TestUnauthenticatedCallsSkipNetwork(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	if _, err := c.GetProfile(ctx, ""); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("GetProfile: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := c.BookAppointment(ctx, "", models.BookingRequest{}); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("BookAppointment: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := c.ListAppointments(ctx, ""); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("ListAppointments: expected ErrNotAuthenticated, got %v", err)
	}
	if srv.TotalCalls() != 0 {
		t.Errorf("expected no requests, got %d", srv.TotalCalls())
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	_, c := setup(t)
	_, err := c.GetProfile(context.Background(), "not-a-jwt")
	if !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestBookListCancel(t *testing.T) {
	srv, c := setup(t)
	srv.AddDoctor(models.Doctor{ID: "doc1", Name: "Dr. A", Available: true, Fees: 40})
	srv.AddUser("Ana", "ana@example.com", "password123")
	token := srv.TokenFor("ana@example.com")
	ctx := context.Background()

	for _, slot := range []string{"10:00", "10:30"} {
		req := models.BookingRequest{DoctorID: "doc1", SlotDate: "5_6_2025", SlotTime: slot}
		if _, err := c.BookAppointment(ctx, token, req); err != nil {
			t.Fatalf("BookAppointment %s failed: %v", slot, err)
		}
	}

	dup := models.BookingRequest{DoctorID: "doc1", SlotDate: "5_6_2025", SlotTime: "10:00"}
	if _, err := c.BookAppointment(ctx, token, dup); !errors.Is(err, apperr.ErrServerRejected) {
		t.Errorf("expected rejection for taken slot, got %v", err)
	}

	appts, err := c.ListAppointments(ctx, token)
	if err != nil {
		t.Fatalf("ListAppointments failed: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
	if appts[0].SlotTime != "10:30" {
		t.Errorf("expected newest first, got %s", appts[0].SlotTime)
	}
	if appts[0].Amount != 40 {
		t.Errorf("expected amount 40, got %v", appts[0].Amount)
	}

	if _, err := c.CancelAppointment(ctx, token, appts[0].ID); err != nil {
		t.Fatalf("CancelAppointment failed: %v", err)
	}
	d, _ := srv.Doctor("doc1")
	if d.SlotsBooked.Has("5_6_2025", "10:30") {
		t.Error("expected cancelled slot to be released")
	}
}

func TestUploadProfileImage(t *testing.T) {
	srv, c := setup(t)
	srv.AddUser("Ana", "ana@example.com", "password123")
	token := srv.TokenFor("ana@example.com")
	ctx := context.Background()

	url, err := c.UploadProfileImage(ctx, token, "/tmp/me.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("UploadProfileImage failed: %v", err)
	}
	if !strings.HasSuffix(url, "/me.png") {
		t.Errorf("unexpected image url %q", url)
	}

	if _, err := c.UploadProfileImage(ctx, token, "notes.txt", strings.NewReader("plain text")); !errors.Is(err, ErrNotAnImage) {
		t.Errorf("expected ErrNotAnImage, got %v", err)
	}

	big := append(append([]byte{}, pngHeader...), make([]byte, 5*1024*1024)...)
	if _, err := c.UploadProfileImage(ctx, token, "big.png", bytes.NewReader(big)); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}

	if n := srv.Calls("/api/user/upload-profile-image"); n != 1 {
		t.Errorf("expected 1 upload request, got %d", n)
	}
}
