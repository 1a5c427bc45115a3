package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/prescripto/prescripto/internal/appstate"
	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/notifier"
	"github.com/prescripto/prescripto/internal/refresh"
	"github.com/prescripto/prescripto/internal/storage"
	"github.com/prescripto/prescripto/internal/tui/components/appointments"
	"github.com/prescripto/prescripto/internal/tui/components/doctors"
	"github.com/prescripto/prescripto/internal/tui/components/profile"
	"github.com/prescripto/prescripto/internal/tui/components/slots"
)

// Deps are the long-lived services the TUI drives.
type Deps struct {
	Ctx      context.Context
	State    *appstate.State
	Backend  booking.Backend
	Store    storage.Provider
	Notifier *notifier.Notifier
	Now      func() time.Time
}

type Model struct {
	ctx      context.Context
	app      *appstate.State
	store    storage.Provider
	notifier *notifier.Notifier
	settings models.Settings

	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	spinner       spinner.Model

	doctorsModel      doctors.Model
	slotsModel        slots.Model
	appointmentsModel appointments.Model
	profileModel      profile.Model

	view            *booking.View
	appts           *booking.Appointments
	refreshTask     *refresh.Task
	refreshInterval time.Duration
	updates         chan tea.Msg

	form        *huh.Form
	loginForm   *LoginFormModel
	profileForm *ProfileFormModel
	confirmForm *ConfirmFormModel
	cancelID    string

	toast      string
	toastLevel notifier.Level
	toastSeq   int

	quitting bool
	width    int
	height   int
}

// NewModel builds the TUI over an already started app state.
func NewModel(deps Deps) Model {
	ctx := deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	settings, err := deps.Store.GetSettings()
	if err != nil {
		logger.Warn("failed to load settings, using defaults", "error", err)
		settings = models.Settings{
			CurrencySymbol:       constants.DefaultCurrencySymbol,
			RefreshIntervalSec:   constants.DefaultRefreshIntervalSec,
			NotificationsEnabled: constants.DefaultNotificationsEnabled,
			Timezone:             constants.DefaultTimezone,
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:               ctx,
		app:               deps.State,
		store:             deps.Store,
		notifier:          deps.Notifier,
		settings:          settings,
		state:             constants.StateDoctors,
		keys:              DefaultKeyMap(),
		help:              help.New(),
		spinner:           sp,
		doctorsModel:      doctors.New(deps.State.Doctors(), settings.CurrencySymbol, 0, 0),
		slotsModel:        slots.New(),
		appointmentsModel: appointments.New(settings.CurrencySymbol, 0, 0),
		profileModel:      profile.New(0, 0),
		view:              booking.New(deps.Backend, deps.State, booking.WithClock(now)),
		appts:             booking.NewAppointments(deps.Backend, deps.State),
		refreshInterval:   settings.RefreshInterval(),
		updates:           make(chan tea.Msg, 1),
	}

	if p, ok := deps.State.Profile(); ok {
		m.profileModel.SetProfile(&p)
	}
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateAppointment:
		k := m.slotsModel.Keys
		keys = append(keys, k.PrevDay, k.NextDay, k.Select, k.Book, k.Back)
	case constants.StateProfile:
		if m.app.Authenticated() {
			keys = append(keys, m.keys.Edit, m.keys.Logout)
		} else {
			keys = append(keys, m.keys.Enter)
		}
	case constants.StateDoctors, constants.StateMyAppointments:
		if !m.app.Authenticated() {
			keys = append(keys, m.keys.Login)
		}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Login}

	var actions []key.Binding
	switch m.state {
	case constants.StateAppointment:
		k := m.slotsModel.Keys
		actions = []key.Binding{k.PrevDay, k.NextDay, k.PrevTime, k.NextTime, k.Select, k.Book, k.Back}
	case constants.StateProfile:
		actions = []key.Binding{m.keys.Enter, m.keys.Edit, m.keys.Logout}
	}

	return [][]key.Binding{global, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

// startRefresh runs the periodic re-fetch for the open appointment view.
// Ticks are handed to the program through the updates channel.
func (m *Model) startRefresh() {
	m.stopRefresh()
	view, ch := m.view, m.updates
	m.refreshTask = refresh.Start(m.ctx, m.refreshInterval, func(ctx context.Context) {
		err := view.Reconcile(ctx)
		select {
		case ch <- refreshTickMsg{err: err}:
		case <-ctx.Done():
		}
	})
}

func (m *Model) stopRefresh() {
	m.refreshTask.Stop()
	m.refreshTask = nil
}

// Close stops background work. It is called once the program exits.
func (m Model) Close() {
	m.refreshTask.Stop()
}
