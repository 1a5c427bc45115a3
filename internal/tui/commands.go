package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prescripto/prescripto/internal/appstate"
	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
)

type (
	// refreshTickMsg arrives from the background refresh task.
	refreshTickMsg struct{ err error }

	// reconciledMsg follows a one-off reconcile after a booking.
	reconciledMsg struct{ err error }

	doctorLoadedMsg struct {
		id  string
		err error
	}

	bookedMsg struct {
		result booking.Result
		err    error
	}

	cancelledMsg struct {
		message string
		err     error
	}

	sessionMsg struct {
		register bool
		err      error
	}

	profileSavedMsg struct {
		err      error
		imageErr error
	}

	directoryMsg    struct{ err error }
	appointmentsMsg struct{ err error }
	profileMsg      struct{ err error }
	toastExpiredMsg struct{ seq int }
)

func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func loadDoctor(ctx context.Context, view *booking.View, id string) tea.Cmd {
	return func() tea.Msg {
		return doctorLoadedMsg{id: id, err: view.Load(ctx)}
	}
}

func reconcile(ctx context.Context, view *booking.View) tea.Cmd {
	return func() tea.Msg {
		return reconciledMsg{err: view.Reconcile(ctx)}
	}
}

func submitBooking(ctx context.Context, view *booking.View) tea.Cmd {
	return func() tea.Msg {
		res, err := view.SubmitBooking(ctx)
		return bookedMsg{result: res, err: err}
	}
}

func refreshDirectory(ctx context.Context, app *appstate.State) tea.Cmd {
	return func() tea.Msg {
		return directoryMsg{err: app.RefreshDoctors(ctx)}
	}
}

func loadAppointments(ctx context.Context, appts *booking.Appointments) tea.Cmd {
	return func() tea.Msg {
		return appointmentsMsg{err: appts.Load(ctx)}
	}
}

func cancelAppointment(ctx context.Context, appts *booking.Appointments, id string) tea.Cmd {
	return func() tea.Msg {
		msg, err := appts.CancelAppointment(ctx, id)
		return cancelledMsg{message: msg, err: err}
	}
}

func authenticate(ctx context.Context, app *appstate.State, fm LoginFormModel) tea.Cmd {
	return func() tea.Msg {
		email := strings.TrimSpace(fm.Email)
		if fm.Register {
			return sessionMsg{register: true, err: app.Register(ctx, strings.TrimSpace(fm.Name), email, fm.Password)}
		}
		return sessionMsg{err: app.Login(ctx, email, fm.Password)}
	}
}

func loadProfile(ctx context.Context, app *appstate.State) tea.Cmd {
	return func() tea.Msg {
		return profileMsg{err: app.LoadProfile(ctx)}
	}
}

func saveProfile(ctx context.Context, app *appstate.State, p models.UserProfile, imagePath string) tea.Cmd {
	return func() tea.Msg {
		if err := app.UpdateProfile(ctx, p); err != nil {
			return profileSavedMsg{err: err}
		}
		if imagePath == "" {
			return profileSavedMsg{}
		}

		f, err := os.Open(imagePath)
		if err != nil {
			return profileSavedMsg{imageErr: err}
		}
		defer f.Close()
		if _, err := app.UploadProfileImage(ctx, filepath.Base(imagePath), f); err != nil {
			return profileSavedMsg{imageErr: err}
		}
		return profileSavedMsg{}
	}
}

// notify shows a transient message and forwards it to the tray.
func (m *Model) notify(level notifier.Level, text string) tea.Cmd {
	m.toast = text
	m.toastLevel = level
	m.toastSeq++
	seq := m.toastSeq

	n, ctx := m.notifier, m.ctx
	return tea.Batch(
		tea.Tick(constants.NotificationDurationMs*time.Millisecond, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: seq}
		}),
		func() tea.Msg {
			if err := n.Notify(ctx, level, text); err != nil {
				logger.Debug("tray notification failed", "error", err)
			}
			return nil
		},
	)
}
