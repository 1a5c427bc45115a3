package doctors

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/models"
)

type OpenDoctorMsg struct {
	ID string
}

type RefreshMsg struct{}

type Item struct {
	Doctor   models.Doctor
	Currency string
}

func (i Item) Title() string {
	if !i.Doctor.Available {
		return i.Doctor.Name + " (not available)"
	}
	return i.Doctor.Name
}

func (i Item) Description() string {
	return fmt.Sprintf("%s | %s | %s | fee %s%.0f", i.Doctor.Speciality, i.Doctor.Degree, i.Doctor.Experience, i.Currency, i.Doctor.Fees)
}

func (i Item) FilterValue() string { return i.Doctor.Name + " " + i.Doctor.Speciality }

type KeyMap struct {
	Open       key.Binding
	Speciality key.Binding
	Refresh    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "book"),
		),
		Speciality: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "speciality"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

type Model struct {
	list       list.Model
	keys       KeyMap
	all        []models.Doctor
	currency   string
	speciality int // 0 is all, otherwise index into constants.Specialities plus one
}

func New(doctors []models.Doctor, currency string, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Doctors"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Open, keys.Speciality, keys.Refresh}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	m := Model{list: l, keys: keys, currency: currency}
	m.SetDoctors(doctors)
	return m
}

// SetDoctors replaces the directory and reapplies the speciality filter.
func (m *Model) SetDoctors(doctors []models.Doctor) {
	m.all = doctors
	m.apply()
}

func (m *Model) apply() {
	filter := m.Speciality()
	var items []list.Item
	for _, d := range m.all {
		if filter == "" || d.Speciality == filter {
			items = append(items, Item{Doctor: d, Currency: m.currency})
		}
	}
	m.list.SetItems(items)
}

// Speciality returns the active filter, "" for all doctors.
func (m Model) Speciality() string {
	if m.speciality == 0 {
		return ""
	}
	return constants.Specialities[m.speciality-1]
}

// CycleSpeciality moves to the next speciality filter, wrapping back to all.
func (m *Model) CycleSpeciality() {
	m.speciality = (m.speciality + 1) % (len(constants.Specialities) + 1)
	m.list.ResetSelected()
	m.apply()
}

// Filtering reports whether the list's text filter has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Open):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return OpenDoctorMsg{ID: i.Doctor.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Speciality):
			m.CycleSpeciality()
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return RefreshMsg{} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := "All doctors"
	if s := m.Speciality(); s != "" {
		header = s
	}
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return fmt.Sprintf("\n  %s\n\n  No doctors found.\n  Press 's' to change speciality.", header)
	}
	return "  " + header + "\n" + m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height-1)
}
