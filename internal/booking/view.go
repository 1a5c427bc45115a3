// Package booking holds the per-view state of the appointment screens.
package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/scheduler"
)

// ErrBusy is returned when the view is already submitting a booking.
var ErrBusy = errors.New("a booking is already in progress")

// Backend is the part of the backend API the booking screens use.
type Backend interface {
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	BookAppointment(ctx context.Context, token string, req models.BookingRequest) (string, error)
	ListAppointments(ctx context.Context, token string) ([]models.Appointment, error)
	CancelAppointment(ctx context.Context, token, appointmentID string) (string, error)
}

// Session reports the current session token, or "" when logged out or expired.
type Session interface {
	Token() string
}

// Result describes a successful submission.
type Result struct {
	Message string
	// NeedsReconcile is always true: the booking map is never patched locally.
	NeedsReconcile bool
}

// Snapshot is a consistent copy of the view for rendering.
type Snapshot struct {
	State     constants.BookingState
	DoctorID  string
	Doctor    models.Doctor
	Week      []models.DaySlots
	Selection models.Selection
	Err       error
}

// View is one appointment-view instance: a doctor, its generated week and
// the user's current selection.
type View struct {
	mu      sync.Mutex
	sched   *scheduler.Scheduler
	backend Backend
	session Session
	now     func() time.Time

	state    constants.BookingState
	doctorID string
	doctor   models.Doctor
	week     []models.DaySlots
	sel      models.Selection
	err      error

	gen     uint64 // bumped on Open; stale responses compare against it
	seq     uint64 // last issued reconcile sequence
	applied uint64 // last applied reconcile sequence
}

type Option func(*View)

// WithClock sets the clock used to generate the week.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

func New(backend Backend, session Session, opts ...Option) *View {
	v := &View{
		sched:   scheduler.New(),
		backend: backend,
		session: session,
		now:     time.Now,
		state:   constants.BookingLoading,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open points the view at a doctor. The view enters Loading and forgets
// any selection; in-flight responses for the previous doctor are discarded.
func (v *View) Open(doctorID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.applied = v.seq
	v.state = constants.BookingLoading
	v.doctorID = doctorID
	v.doctor = models.Doctor{}
	v.week = nil
	v.sel = models.Selection{}
	v.err = nil
}

// Loaded installs the fetched doctor record and generates the week.
// It reports false if the record is not for the doctor currently open.
func (v *View) Loaded(doctor models.Doctor, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if doctor.ID != v.doctorID {
		return false
	}
	// Reconciling onto an empty record normalizes a missing booking map.
	v.doctor = scheduler.Reconcile(models.Doctor{}, doctor)
	v.week = v.sched.GenerateWeek(v.doctor, now)
	v.state = constants.BookingReady
	v.err = nil
	return true
}

// Load fetches the directory and installs the open doctor's record.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	id := v.doctorID
	gen := v.gen
	v.mu.Unlock()

	docs, err := v.backend.ListDoctors(ctx)
	if err != nil {
		v.fail(gen, err)
		return err
	}
	doc, err := scheduler.FindDoctor(docs, id)
	if err != nil {
		v.fail(gen, err)
		return err
	}

	v.Loaded(doc, v.now())
	return nil
}

func (v *View) fail(gen uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return
	}
	v.state = constants.BookingError
	v.err = err
}

// BeginReconcile reserves a sequence number for a re-fetch.
func (v *View) BeginReconcile() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	return v.seq
}

// ApplyReconcile merges a fresh record and regenerates the week. Responses
// older than the last applied one, or for another doctor, are dropped.
// A selection whose slot has since been booked is cleared.
func (v *View) ApplyReconcile(seq uint64, fresh models.Doctor, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq <= v.applied || v.state == constants.BookingLoading {
		return false
	}
	if fresh.HasField("_id") && fresh.ID != v.doctorID {
		return false
	}

	v.applied = seq
	v.doctor = scheduler.Reconcile(v.doctor, fresh)
	v.week = v.sched.GenerateWeek(v.doctor, now)

	if !v.sel.Empty() {
		if _, err := v.sched.SelectSlot(v.week, v.sel.DayIndex, v.sel.Time); err != nil {
			logger.Debug("selection no longer available", "doctor", v.doctorID, "time", v.sel.Time)
			v.sel.Time = ""
		}
	}
	if v.state == constants.BookingError {
		v.state = constants.BookingReady
		v.err = nil
	}
	return true
}

// Reconcile re-fetches the open doctor and applies the result.
func (v *View) Reconcile(ctx context.Context) error {
	v.mu.Lock()
	id := v.doctorID
	v.mu.Unlock()

	seq := v.BeginReconcile()
	docs, err := v.backend.ListDoctors(ctx)
	if err != nil {
		logger.Warn("failed to refresh doctor", "doctor", id, "error", err)
		return err
	}
	doc, err := scheduler.FindDoctor(docs, id)
	if err != nil {
		logger.Warn("doctor no longer listed", "doctor", id, "error", err)
		return err
	}
	v.ApplyReconcile(seq, doc, v.now())
	return nil
}

// SelectDay picks a day of the week and clears the chosen time.
func (v *View) SelectDay(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.selectableLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(v.week) {
		return apperr.ErrSlotUnavailable
	}
	v.sel = models.Selection{DayIndex: i}
	v.clearErrorLocked()
	return nil
}

// SelectTime picks a time on the selected day. Only unbooked slots are accepted.
func (v *View) SelectTime(hhmm string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.selectableLocked(); err != nil {
		return err
	}
	sel, err := v.sched.SelectSlot(v.week, v.sel.DayIndex, hhmm)
	if err != nil {
		return err
	}
	v.sel = sel
	v.clearErrorLocked()
	return nil
}

func (v *View) selectableLocked() error {
	switch v.state {
	case constants.BookingSubmitting:
		return ErrBusy
	case constants.BookingLoading:
		return apperr.ErrSlotUnavailable
	}
	return nil
}

func (v *View) clearErrorLocked() {
	if v.state == constants.BookingError {
		v.state = constants.BookingReady
		v.err = nil
	}
}

// SubmitBooking sends the current selection to the backend. Without a
// session token it fails with ErrNotAuthenticated before any request.
// On success the selection is cleared and the caller must reconcile.
func (v *View) SubmitBooking(ctx context.Context) (Result, error) {
	v.mu.Lock()
	if v.state == constants.BookingSubmitting {
		v.mu.Unlock()
		return Result{}, ErrBusy
	}
	if v.state == constants.BookingLoading {
		v.mu.Unlock()
		return Result{}, apperr.ErrNoSlotSelected
	}
	token := v.session.Token()
	if token == "" {
		v.mu.Unlock()
		return Result{}, apperr.ErrNotAuthenticated
	}
	req, err := v.sched.BookingRequestFor(v.doctorID, v.week, v.sel)
	if err != nil {
		v.mu.Unlock()
		return Result{}, err
	}
	gen := v.gen
	v.state = constants.BookingSubmitting
	v.err = nil
	v.mu.Unlock()

	logger.Info("booking appointment", "doctor", req.DoctorID, "date", req.SlotDate, "time", req.SlotTime)
	msg, err := v.backend.BookAppointment(ctx, token, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		// the user moved to another doctor while the request was in flight
		if err != nil {
			return Result{}, err
		}
		return Result{Message: msg, NeedsReconcile: true}, nil
	}
	if err != nil {
		logger.Warn("booking failed", "doctor", req.DoctorID, "error", err)
		v.state = constants.BookingError
		v.err = err
		return Result{}, err
	}

	v.sel = models.Selection{}
	v.state = constants.BookingReady
	return Result{Message: msg, NeedsReconcile: true}, nil
}

// Snapshot returns a copy of the view for rendering.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		State:     v.state,
		DoctorID:  v.doctorID,
		Doctor:    v.doctor,
		Week:      v.week,
		Selection: v.sel,
		Err:       v.err,
	}
}

// State returns the current phase of the view.
func (v *View) State() constants.BookingState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
