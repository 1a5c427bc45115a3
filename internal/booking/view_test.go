package booking

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prescripto/prescripto/internal/api"
	"github.com/prescripto/prescripto/internal/api/apitest"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
)

var fixedNow = time.Date(2025, time.June, 5, 9, 0, 0, 0, time.UTC)

type staticSession string

func (s staticSession) Token() string { return string(s) }

type stubBackend struct {
	mu           sync.Mutex
	doctors      []models.Doctor
	appointments []models.Appointment
	bookErr      error
	cancelErr    error
	bookCalls    int
	listCalls    int
	apptCalls    int
	cancelCalls  int
}

func (b *stubBackend) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++

	// round-trip through JSON so records carry key presence like real responses
	raw, err := json.Marshal(b.doctors)
	if err != nil {
		return nil, err
	}
	var out []models.Doctor
	err = json.Unmarshal(raw, &out)
	return out, err
}

func (b *stubBackend) BookAppointment(ctx context.Context, token string, req models.BookingRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bookCalls++
	if b.bookErr != nil {
		return "", b.bookErr
	}
	for i := range b.doctors {
		if b.doctors[i].ID == req.DoctorID {
			if b.doctors[i].SlotsBooked == nil {
				b.doctors[i].SlotsBooked = models.BookedSlots{}
			}
			b.doctors[i].SlotsBooked[req.SlotDate] = append(b.doctors[i].SlotsBooked[req.SlotDate], req.SlotTime)
		}
	}
	return "Appointment Booked", nil
}

func (b *stubBackend) ListAppointments(ctx context.Context, token string) ([]models.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apptCalls++
	return append([]models.Appointment(nil), b.appointments...), nil
}

func (b *stubBackend) CancelAppointment(ctx context.Context, token, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCalls++
	if b.cancelErr != nil {
		return "", b.cancelErr
	}
	for i := range b.appointments {
		if b.appointments[i].ID == id {
			b.appointments[i].Cancelled = true
		}
	}
	return "Appointment Cancelled", nil
}

func (b *stubBackend) bookSlot(doctorID, dateKey, hhmm string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.doctors {
		if b.doctors[i].ID == doctorID {
			b.doctors[i].SlotsBooked[dateKey] = append(b.doctors[i].SlotsBooked[dateKey], hhmm)
		}
	}
}

func newStub() *stubBackend {
	return &stubBackend{doctors: []models.Doctor{
		{ID: "doc1", Name: "Dr. A", Available: true, SlotsBooked: models.BookedSlots{"5_6_2025": {"14:00"}}},
		{ID: "doc2", Name: "Dr. B", Available: true},
	}}
}

func openView(t *testing.T, b Backend, token string, id string) *View {
	t.Helper()
	v := New(b, staticSession(token), WithClock(func() time.Time { return fixedNow }))
	v.Open(id)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return v
}

func slotBooked(week []models.DaySlots, day int, hhmm string) bool {
	for _, s := range week[day].Slots {
		if s.Time == hhmm {
			return s.IsBooked
		}
	}
	return false
}

func TestOpenAndLoad(t *testing.T) {
	b := newStub()
	v := New(b, staticSession("tok"), WithClock(func() time.Time { return fixedNow }))

	v.Open("doc1")
	if v.State() != constants.BookingLoading {
		t.Fatalf("expected Loading after Open, got %s", v.State())
	}

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	snap := v.Snapshot()
	if snap.State != constants.BookingReady {
		t.Errorf("expected Ready, got %s", snap.State)
	}
	if len(snap.Week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(snap.Week))
	}
	if !slotBooked(snap.Week, 0, "14:00") {
		t.Error("expected 14:00 to be booked")
	}
}

func TestLoadUnknownDoctor(t *testing.T) {
	v := New(newStub(), staticSession("tok"))
	v.Open("missing")
	err := v.Load(context.Background())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v.State() != constants.BookingError {
		t.Errorf("expected Error, got %s", v.State())
	}
}

func TestSubmitWithoutTokenSkipsNetwork(t *testing.T) {
	b := newStub()
	v := openView(t, b, "", "doc1")

	if err := v.SelectTime("10:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	_, err := v.SubmitBooking(context.Background())
	if !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if b.bookCalls != 0 {
		t.Errorf("expected no booking request, got %d", b.bookCalls)
	}
	snap := v.Snapshot()
	if snap.State != constants.BookingReady {
		t.Errorf("expected Ready, got %s", snap.State)
	}
	if snap.Selection.Time != "10:00" {
		t.Errorf("expected selection kept, got %+v", snap.Selection)
	}
}

func TestSubmitWithoutSelection(t *testing.T) {
	b := newStub()
	v := openView(t, b, "tok", "doc1")

	_, err := v.SubmitBooking(context.Background())
	if !errors.Is(err, apperr.ErrNoSlotSelected) {
		t.Fatalf("expected ErrNoSlotSelected, got %v", err)
	}
	if b.bookCalls != 0 {
		t.Errorf("expected no booking request, got %d", b.bookCalls)
	}
}

func TestSubmitSuccess(t *testing.T) {
	b := newStub()
	v := openView(t, b, "tok", "doc1")

	if err := v.SelectDay(1); err != nil {
		t.Fatalf("SelectDay failed: %v", err)
	}
	if err := v.SelectTime("11:30"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}

	res, err := v.SubmitBooking(context.Background())
	if err != nil {
		t.Fatalf("SubmitBooking failed: %v", err)
	}
	if !res.NeedsReconcile {
		t.Error("expected NeedsReconcile")
	}

	snap := v.Snapshot()
	if !snap.Selection.Empty() {
		t.Errorf("expected cleared selection, got %+v", snap.Selection)
	}
	if snap.State != constants.BookingReady {
		t.Errorf("expected Ready, got %s", snap.State)
	}
	if slotBooked(snap.Week, 1, "11:30") {
		t.Error("booking map must not be patched locally")
	}

	if err := v.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !slotBooked(v.Snapshot().Week, 1, "11:30") {
		t.Error("expected 11:30 booked after reconcile")
	}
}

func TestSubmitFailure(t *testing.T) {
	b := newStub()
	b.bookErr = apperr.Rejected(200, "Slot not available")
	v := openView(t, b, "tok", "doc1")

	if err := v.SelectTime("10:30"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	_, err := v.SubmitBooking(context.Background())
	if !errors.Is(err, apperr.ErrServerRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	snap := v.Snapshot()
	if snap.State != constants.BookingError {
		t.Errorf("expected Error, got %s", snap.State)
	}
	if snap.Err == nil || apperr.UserMessage(snap.Err) != "Slot not available" {
		t.Errorf("expected retained error, got %v", snap.Err)
	}
	if snap.Selection.Time != "10:30" {
		t.Errorf("expected selection retained, got %+v", snap.Selection)
	}
	if b.bookCalls != 1 {
		t.Errorf("expected exactly one attempt, got %d", b.bookCalls)
	}

	if err := v.SelectDay(2); err != nil {
		t.Fatalf("SelectDay failed: %v", err)
	}
	if v.State() != constants.BookingReady {
		t.Errorf("expected Ready after new selection, got %s", v.State())
	}
}

func TestSelectTimeRejectsBookedSlot(t *testing.T) {
	v := openView(t, newStub(), "tok", "doc1")
	if err := v.SelectTime("14:00"); !errors.Is(err, apperr.ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable, got %v", err)
	}
	if err := v.SelectDay(7); !errors.Is(err, apperr.ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestSelectWhileLoading(t *testing.T) {
	v := New(newStub(), staticSession("tok"))
	v.Open("doc1")
	if err := v.SelectTime("10:00"); !errors.Is(err, apperr.ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable while loading, got %v", err)
	}
}

func decode(t *testing.T, s string) models.Doctor {
	t.Helper()
	var d models.Doctor
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return d
}

func TestApplyReconcileDiscardsStale(t *testing.T) {
	v := openView(t, newStub(), "tok", "doc1")

	older := v.BeginReconcile()
	newer := v.BeginReconcile()

	if !v.ApplyReconcile(newer, decode(t, `{"_id":"doc1","slots_booked":{"5_6_2025":["16:00"]}}`), fixedNow) {
		t.Fatal("expected newer response to apply")
	}
	if v.ApplyReconcile(older, decode(t, `{"_id":"doc1","slots_booked":{"5_6_2025":["17:00"]}}`), fixedNow) {
		t.Fatal("expected older response to be discarded")
	}

	week := v.Snapshot().Week
	if !slotBooked(week, 0, "16:00") || slotBooked(week, 0, "17:00") {
		t.Error("week does not reflect the newest response")
	}
	if slotBooked(week, 0, "14:00") {
		t.Error("expected booking map replaced by fresh record")
	}
}

func TestApplyReconcileAfterDoctorChange(t *testing.T) {
	v := openView(t, newStub(), "tok", "doc1")
	seq := v.BeginReconcile()

	v.Open("doc2")
	if v.ApplyReconcile(seq, decode(t, `{"_id":"doc1"}`), fixedNow) {
		t.Error("expected in-flight response for previous doctor to be dropped")
	}
}

func TestReconcileClearsTakenSelection(t *testing.T) {
	b := newStub()
	v := openView(t, b, "tok", "doc1")

	if err := v.SelectTime("15:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	b.bookSlot("doc1", "5_6_2025", "15:00")

	if err := v.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	snap := v.Snapshot()
	if !snap.Selection.Empty() {
		t.Errorf("expected selection cleared, got %+v", snap.Selection)
	}
	if !slotBooked(snap.Week, 0, "15:00") {
		t.Error("expected 15:00 booked after reconcile")
	}
}

func TestReconcileDoctorRemoved(t *testing.T) {
	saved := logger.Logger
	defer func() { logger.Logger = saved }()
	if err := logger.Init(logger.Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("logger init failed: %v", err)
	}

	b := newStub()
	v := openView(t, b, "tok", "doc1")
	b.mu.Lock()
	b.doctors = b.doctors[1:]
	b.mu.Unlock()

	if err := v.Reconcile(context.Background()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v.State() != constants.BookingReady {
		t.Errorf("expected the last grid to stay Ready, got %s", v.State())
	}

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "doctor no longer listed") {
		t.Errorf("expected a warning in the log, got:\n%s", data)
	}
}

func TestReconcileMissingBookingMap(t *testing.T) {
	v := openView(t, newStub(), "tok", "doc1")
	seq := v.BeginReconcile()
	v.ApplyReconcile(seq, decode(t, `{"_id":"doc1","name":"Dr. A"}`), fixedNow)

	snap := v.Snapshot()
	if snap.Doctor.SlotsBooked == nil || len(snap.Doctor.SlotsBooked) != 0 {
		t.Errorf("expected empty booking map, got %v", snap.Doctor.SlotsBooked)
	}
}

func TestEndToEndWithBackend(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddDoctor(models.Doctor{ID: "doc1", Name: "Dr. A", Available: true, Fees: 30})
	srv.AddUser("Ana", "ana@example.com", "password123")

	client := api.New(srv.URL, 5*time.Second)
	v := openView(t, client, srv.TokenFor("ana@example.com"), "doc1")

	if err := v.SelectTime("12:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if _, err := v.SubmitBooking(context.Background()); err != nil {
		t.Fatalf("SubmitBooking failed: %v", err)
	}
	if err := v.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !slotBooked(v.Snapshot().Week, 0, "12:00") {
		t.Error("expected 12:00 booked after reconcile")
	}

	// someone else takes the next slot; the second attempt is rejected by the server
	srv.BookSlot("doc1", "5_6_2025", "12:30")
	if err := v.SelectTime("12:30"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	_, err := v.SubmitBooking(context.Background())
	if !errors.Is(err, apperr.ErrServerRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if v.State() != constants.BookingError {
		t.Errorf("expected Error, got %s", v.State())
	}
}
