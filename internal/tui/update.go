package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/tui/components/appointments"
	"github.com/prescripto/prescripto/internal/tui/components/doctors"
)

var tabs = []constants.SessionState{
	constants.StateDoctors,
	constants.StateMyAppointments,
	constants.StateProfile,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		w, h := msg.Width-4, msg.Height-6
		m.doctorsModel.SetSize(w, h)
		m.slotsModel.SetSize(w, h)
		m.appointmentsModel.SetSize(w, h)
		m.profileModel.SetSize(w, h)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case refreshTickMsg:
		// failures are logged by the view; the grid keeps its last state
		m.slotsModel.Clamp(m.view.Snapshot())
		return m, waitForUpdate(m.updates)

	case reconciledMsg:
		m.slotsModel.Clamp(m.view.Snapshot())
		if msg.err != nil {
			return m, m.notify(notifier.LevelWarn, "Could not refresh availability: "+apperr.UserMessage(msg.err))
		}
		return m, nil

	case doctorLoadedMsg:
		if msg.id != m.view.Snapshot().DoctorID {
			return m, nil
		}
		m.slotsModel.Reset()
		if msg.err != nil {
			return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
		}
		return m, nil

	case directoryMsg:
		m.doctorsModel.SetDoctors(m.app.Doctors())
		if msg.err != nil {
			return m, m.notify(notifier.LevelWarn, "Showing saved doctors: "+apperr.UserMessage(msg.err))
		}
		return m, nil

	case bookedMsg:
		return m.handleBooked(msg)

	case appointmentsMsg:
		if msg.err != nil {
			if errors.Is(msg.err, apperr.ErrNotAuthenticated) {
				m.appointmentsModel.Clear()
				return m, nil
			}
			return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
		}
		m.appointmentsModel.SetAppointments(m.appts.Items(), m.appts.Cancelling())
		return m, nil

	case cancelledMsg:
		return m.handleCancelled(msg)

	case sessionMsg:
		return m.handleSession(msg)

	case profileMsg:
		return m.handleProfile(msg)

	case profileSavedMsg:
		return m.handleProfileSaved(msg)

	case doctors.OpenDoctorMsg:
		return m.openDoctor(msg.ID)

	case doctors.RefreshMsg:
		return m, refreshDirectory(m.ctx, m.app)

	case appointments.CancelMsg:
		return m.promptCancel(msg.ID)

	case appointments.ReloadMsg:
		return m, loadAppointments(m.ctx, m.appts)
	}

	switch m.state {
	case constants.StateLogin, constants.StateEditProfile, constants.StateConfirmCancel:
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.doctorsModel.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.stopRefresh()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Tab):
			return m.switchTab(1)
		case key.Matches(msg, m.keys.ShiftTab):
			return m.switchTab(-1)
		case key.Matches(msg, m.keys.Login) && !m.app.Authenticated():
			return m.promptLogin(m.state)
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateDoctors:
		m.doctorsModel, cmd = m.doctorsModel.Update(msg)
	case constants.StateAppointment:
		return m.updateAppointment(msg)
	case constants.StateMyAppointments:
		m.appointmentsModel, cmd = m.appointmentsModel.Update(msg)
	case constants.StateProfile:
		return m.updateProfile(msg)
	}
	return m, cmd
}

func tabIndex(s constants.SessionState) int {
	if s == constants.StateAppointment {
		return 0
	}
	for i, t := range tabs {
		if t == s {
			return i
		}
	}
	return 0
}

func (m Model) switchTab(delta int) (Model, tea.Cmd) {
	i := (tabIndex(m.state) + delta + len(tabs)) % len(tabs)
	return m.enter(tabs[i])
}

// enter switches screens. Leaving the appointment view stops its refresh task.
func (m Model) enter(s constants.SessionState) (Model, tea.Cmd) {
	if m.state == constants.StateAppointment && s != constants.StateAppointment {
		m.stopRefresh()
	}
	m.state = s

	switch s {
	case constants.StateAppointment:
		m.startRefresh()
	case constants.StateMyAppointments:
		if m.app.Authenticated() {
			return m, loadAppointments(m.ctx, m.appts)
		}
		m.appointmentsModel.Clear()
	case constants.StateProfile:
		if m.app.Authenticated() {
			return m, loadProfile(m.ctx, m.app)
		}
		m.profileModel.SetProfile(nil)
	}
	return m, nil
}

func (m Model) openDoctor(id string) (Model, tea.Cmd) {
	logger.Debug("opening appointment view", "doctor", id)
	m.view.Open(id)
	m.slotsModel.Reset()
	m, cmd := m.enter(constants.StateAppointment)
	return m, tea.Batch(cmd, loadDoctor(m.ctx, m.view, id))
}

func (m Model) updateAppointment(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	snap := m.view.Snapshot()
	k := m.slotsModel.Keys
	switch {
	case key.Matches(keyMsg, k.Back):
		return m.enter(constants.StateDoctors)
	case key.Matches(keyMsg, k.PrevDay):
		if err := m.view.SelectDay(snap.Selection.DayIndex - 1); err == nil {
			m.slotsModel.Reset()
		}
	case key.Matches(keyMsg, k.NextDay):
		if err := m.view.SelectDay(snap.Selection.DayIndex + 1); err == nil {
			m.slotsModel.Reset()
		}
	case key.Matches(keyMsg, k.PrevTime):
		m.slotsModel.Move(snap, -1)
	case key.Matches(keyMsg, k.NextTime):
		m.slotsModel.Move(snap, 1)
	case key.Matches(keyMsg, k.Select):
		slot, ok := m.slotsModel.CursorSlot(snap)
		if !ok {
			return m, nil
		}
		if err := m.view.SelectTime(slot.Time); err != nil {
			return m, m.notify(notifier.LevelWarn, apperr.UserMessage(err))
		}
	case key.Matches(keyMsg, k.Book):
		if snap.State == constants.BookingSubmitting {
			return m, nil
		}
		return m, submitBooking(m.ctx, m.view)
	}
	return m, nil
}

func (m Model) handleBooked(msg bookedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, booking.ErrBusy):
			return m, nil
		case errors.Is(msg.err, apperr.ErrNotAuthenticated):
			toast := m.notify(notifier.LevelWarn, apperr.ActionMessage(msg.err, "book an appointment"))
			var cmd tea.Cmd
			m, cmd = m.promptLogin(constants.StateAppointment)
			return m, tea.Batch(toast, cmd)
		}
		return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
	}

	text := msg.result.Message
	if text == "" {
		text = "Appointment booked"
	}
	cmds := []tea.Cmd{m.notify(notifier.LevelSuccess, text)}
	if msg.result.NeedsReconcile {
		cmds = append(cmds, reconcile(m.ctx, m.view))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) promptCancel(id string) (Model, tea.Cmd) {
	appt, err := m.appts.Find(id)
	if err != nil || !appt.Active() {
		return m, nil
	}
	m.cancelID = id
	m.previousState = constants.StateMyAppointments
	m.state = constants.StateConfirmCancel
	m.confirmForm = &ConfirmFormModel{}
	m.form = NewConfirmForm(m.confirmForm, "Cancel appointment with "+appt.DoctorData.Name+"?")
	return m, m.form.Init()
}

// confirmCancel runs once the confirmation form completes.
func (m Model) confirmCancel() (Model, tea.Cmd) {
	id := m.cancelID
	m.cancelID = ""
	m.state = constants.StateMyAppointments
	if !m.confirmForm.Confirmed || id == "" {
		return m, nil
	}
	m.appointmentsModel.SetAppointments(m.appts.Items(), id)
	return m, cancelAppointment(m.ctx, m.appts, id)
}

func (m Model) handleCancelled(msg cancelledMsg) (Model, tea.Cmd) {
	m.appointmentsModel.SetAppointments(m.appts.Items(), "")
	if msg.message == "" && msg.err != nil {
		return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
	}
	if msg.err != nil {
		logger.Warn("appointments not reloaded after cancel", "error", msg.err)
	}
	return m, m.notify(notifier.LevelSuccess, msg.message)
}

func (m Model) promptLogin(returnTo constants.SessionState) (Model, tea.Cmd) {
	m.stopRefresh()
	email := ""
	if m.loginForm != nil {
		email = m.loginForm.Email
	}
	m.previousState = returnTo
	m.state = constants.StateLogin
	m.loginForm = &LoginFormModel{Email: email}
	m.form = NewLoginForm(m.loginForm)
	return m, m.form.Init()
}

func (m Model) handleSession(msg sessionMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		toast := m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
		var cmd tea.Cmd
		m, cmd = m.promptLogin(m.previousState)
		return m, tea.Batch(toast, cmd)
	}

	text := "Logged in"
	if msg.register {
		text = "Account created"
	}
	if p, ok := m.app.Profile(); ok {
		m.profileModel.SetProfile(&p)
		text += " as " + p.Name
	}
	toast := m.notify(notifier.LevelSuccess, text)

	// the returned-to screen reloads what it needs
	var cmd tea.Cmd
	m, cmd = m.enter(m.previousState)
	return m, tea.Batch(toast, cmd)
}

func (m Model) updateProfile(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case !m.app.Authenticated() && key.Matches(keyMsg, m.keys.Enter):
			return m.promptLogin(constants.StateProfile)
		case m.app.Authenticated() && key.Matches(keyMsg, m.keys.Edit):
			p, ok := m.app.Profile()
			if !ok {
				return m, nil
			}
			m.previousState = constants.StateProfile
			m.state = constants.StateEditProfile
			m.profileForm = profileForm(p)
			m.form = NewProfileForm(m.profileForm)
			return m, m.form.Init()
		case m.app.Authenticated() && key.Matches(keyMsg, m.keys.Logout):
			return m.logout()
		}
	}

	var cmd tea.Cmd
	m.profileModel, cmd = m.profileModel.Update(msg)
	return m, cmd
}

func (m Model) logout() (Model, tea.Cmd) {
	if err := m.app.Logout(); err != nil {
		return m, m.notify(notifier.LevelError, err.Error())
	}
	m.profileModel.SetProfile(nil)
	m.appointmentsModel.Clear()
	return m, m.notify(notifier.LevelInfo, "Logged out")
}

func (m Model) handleProfile(msg profileMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if !m.app.Authenticated() {
			m.profileModel.SetProfile(nil)
			return m, m.notify(notifier.LevelWarn, "Session expired, please login again")
		}
		return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
	}
	if p, ok := m.app.Profile(); ok {
		m.profileModel.SetProfile(&p)
	}
	return m, nil
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (Model, tea.Cmd) {
	if p, ok := m.app.Profile(); ok {
		m.profileModel.SetProfile(&p)
	}
	switch {
	case msg.err != nil:
		return m, m.notify(notifier.LevelError, apperr.UserMessage(msg.err))
	case msg.imageErr != nil:
		return m, m.notify(notifier.LevelWarn, "Profile saved, image upload failed: "+apperr.UserMessage(msg.imageErr))
	}
	return m, m.notify(notifier.LevelSuccess, "Profile updated")
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			return m.closeForm()
		}
	}

	if m.form == nil {
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		var next tea.Cmd
		m, next = m.completeForm()
		cmds = append(cmds, next)
	case huh.StateAborted:
		var next tea.Cmd
		m, next = m.closeForm()
		cmds = append(cmds, next)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) completeForm() (Model, tea.Cmd) {
	switch m.state {
	case constants.StateLogin:
		// stay on the form screen until the backend answers
		m.form = nil
		return m, authenticate(m.ctx, m.app, *m.loginForm)
	case constants.StateEditProfile:
		p, _ := m.app.Profile()
		updated := m.profileForm.Apply(p)
		m.form = nil
		m.state = constants.StateProfile
		return m, saveProfile(m.ctx, m.app, updated, strings.TrimSpace(m.profileForm.ImagePath))
	case constants.StateConfirmCancel:
		m.form = nil
		return m.confirmCancel()
	}
	return m, nil
}

// closeForm abandons the open form and returns to where it was opened from.
func (m Model) closeForm() (Model, tea.Cmd) {
	m.form = nil
	m.cancelID = ""
	if m.previousState == constants.StateAppointment {
		return m.enter(constants.StateAppointment)
	}
	m.state = m.previousState
	return m, nil
}
