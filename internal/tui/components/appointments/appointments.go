package appointments

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/utils"
)

type CancelMsg struct {
	ID string
}

type ReloadMsg struct{}

type Item struct {
	Appointment models.Appointment
	Currency    string
	Cancelling  bool
}

func (i Item) Title() string {
	return i.Appointment.DoctorData.Name
}

func (i Item) Description() string {
	a := i.Appointment
	status := a.Status()
	if i.Cancelling {
		status = "cancelling..."
	}
	return fmt.Sprintf("%s | %s %s | %s%.0f | %s",
		a.DoctorData.Speciality,
		utils.FormatDateKey(a.SlotDate),
		utils.To12Hour(a.SlotTime),
		i.Currency, a.Amount,
		status,
	)
}

func (i Item) FilterValue() string { return i.Appointment.DoctorData.Name }

type KeyMap struct {
	Cancel key.Binding
	Reload key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("c", "x"),
			key.WithHelp("c", "cancel appointment"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

type Model struct {
	list     list.Model
	keys     KeyMap
	currency string
	loaded   bool
}

func New(currency string, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "My Appointments"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Cancel, keys.Reload}
	}
	return Model{list: l, keys: keys, currency: currency}
}

// SetAppointments replaces the list with a fresh fetch.
func (m *Model) SetAppointments(items []models.Appointment, cancelling string) {
	li := make([]list.Item, 0, len(items))
	for _, a := range items {
		li = append(li, Item{Appointment: a, Currency: m.currency, Cancelling: a.ID == cancelling})
	}
	m.list.SetItems(li)
	m.loaded = true
}

// Clear forgets the list, as after logout.
func (m *Model) Clear() {
	m.list.SetItems(nil)
	m.loaded = false
}

func (m Model) Selected() (models.Appointment, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Appointment{}, false
	}
	return i.Appointment, true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			if a, ok := m.Selected(); ok && a.Active() {
				return m, func() tea.Msg { return CancelMsg{ID: a.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			return m, func() tea.Msg { return ReloadMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.loaded {
		return "\n  Loading appointments..."
	}
	if len(m.list.Items()) == 0 {
		return "\n  You have no appointments yet.\n  Pick a doctor on the Doctors tab to book one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
