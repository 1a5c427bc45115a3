// Package slots renders the seven-day booking grid of one doctor.
package slots

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/prescripto/prescripto/internal/booking"
	"github.com/prescripto/prescripto/internal/constants"
	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/utils"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Align(lipgloss.Center)

	selectedDayStyle = dayStyle.
				BorderForeground(lipgloss.Color("205")).
				Foreground(lipgloss.Color("205")).
				Bold(true)

	timeStyle = lipgloss.NewStyle().
			Padding(0, 1)

	cursorTimeStyle = timeStyle.
			Underline(true).
			Foreground(lipgloss.Color("252"))

	selectedTimeStyle = timeStyle.
				Background(lipgloss.Color("205")).
				Foreground(lipgloss.Color("0")).
				Bold(true)

	bookedTimeStyle = timeStyle.
			Foreground(lipgloss.Color("238")).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

type KeyMap struct {
	PrevDay  key.Binding
	NextDay  key.Binding
	PrevTime key.Binding
	NextTime key.Binding
	Select   key.Binding
	Book     key.Binding
	Back     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		PrevTime: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev time"),
		),
		NextTime: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next time"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select time"),
		),
		Book: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "book"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// Model tracks the cursor over the selected day's times. The selection
// itself lives in the booking view.
type Model struct {
	Keys   KeyMap
	cursor int
	width  int
}

func New() Model {
	return Model{Keys: DefaultKeyMap()}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
}

// Reset moves the cursor back to the first time of the day.
func (m *Model) Reset() {
	m.cursor = 0
}

func (m Model) Cursor() int {
	return m.cursor
}

// Move shifts the cursor by delta within the selected day, clamped.
func (m *Model) Move(snap booking.Snapshot, delta int) {
	m.cursor += delta
	m.Clamp(snap)
}

// Clamp keeps the cursor inside the selected day after the week changes.
func (m *Model) Clamp(snap booking.Snapshot) {
	n := len(daySlots(snap))
	switch {
	case n == 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	case m.cursor < 0:
		m.cursor = 0
	}
}

// CursorSlot returns the slot under the cursor, if the selected day has any.
func (m Model) CursorSlot(snap booking.Snapshot) (models.Slot, bool) {
	slots := daySlots(snap)
	if m.cursor < 0 || m.cursor >= len(slots) {
		return models.Slot{}, false
	}
	return slots[m.cursor], true
}

func daySlots(snap booking.Snapshot) []models.Slot {
	i := snap.Selection.DayIndex
	if i < 0 || i >= len(snap.Week) {
		return nil
	}
	return snap.Week[i].Slots
}

// View renders the doctor header, the day strip and the selected day's times.
func (m Model) View(snap booking.Snapshot, related []models.Doctor, currency, spinner string) string {
	switch snap.State {
	case constants.BookingLoading:
		return fmt.Sprintf("\n  %s Loading doctor...", spinner)
	case constants.BookingError:
		if len(snap.Week) == 0 {
			return "\n  " + errorStyle.Render(loadError(snap.Err))
		}
	}

	var b strings.Builder
	d := snap.Doctor

	b.WriteString(headerStyle.Render(d.Name))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s - %s | %s", d.Degree, d.Speciality, d.Experience)))
	b.WriteString("\n")
	if d.About != "" {
		about := lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(d.About)
		b.WriteString(about)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Appointment fee: %s%.0f\n", currency, d.Fees))
	if !d.Available {
		b.WriteString(errorStyle.Render("This doctor is not accepting appointments."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Booking slots"))
	b.WriteString("\n")

	b.WriteString(m.viewDays(snap))
	b.WriteString("\n")
	b.WriteString(m.viewTimes(snap))
	b.WriteString("\n\n")

	switch snap.State {
	case constants.BookingSubmitting:
		b.WriteString(fmt.Sprintf("%s Booking appointment...", spinner))
	case constants.BookingError:
		b.WriteString(errorStyle.Render(loadError(snap.Err)))
	default:
		if snap.Selection.Empty() {
			b.WriteString(mutedStyle.Render("Pick a time, then press 'b' to book."))
		} else {
			b.WriteString(fmt.Sprintf("Selected %s at %s. Press 'b' to book.",
				dayLabel(snap.Week[snap.Selection.DayIndex]), displayTime(snap.Selection.Time)))
		}
	}

	if len(related) > 0 {
		b.WriteString("\n\n")
		b.WriteString(headerStyle.Render("Related doctors"))
		for _, r := range related {
			b.WriteString("\n  ")
			b.WriteString(r.Name)
			b.WriteString(mutedStyle.Render(" " + r.Speciality))
		}
	}
	return b.String()
}

func (m Model) viewDays(snap booking.Snapshot) string {
	days := make([]string, 0, len(snap.Week))
	for i, day := range snap.Week {
		label := dayLabel(day)
		if i == snap.Selection.DayIndex {
			days = append(days, selectedDayStyle.Render(label))
		} else {
			days = append(days, dayStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, days...)
}

func (m Model) viewTimes(snap booking.Snapshot) string {
	slots := daySlots(snap)
	if len(slots) == 0 {
		return mutedStyle.Render("No slots left today.")
	}

	perRow := max((m.width-4)/11, 1)
	var rows []string
	var row []string
	for i, s := range slots {
		label := displayTime(s.Time)
		var cell string
		switch {
		case s.IsBooked:
			cell = bookedTimeStyle.Render(label)
		case s.Time == snap.Selection.Time:
			cell = selectedTimeStyle.Render(label)
		case i == m.cursor:
			cell = cursorTimeStyle.Render(label)
		default:
			cell = timeStyle.Render(label)
		}
		if i == m.cursor && s.IsBooked {
			cell = bookedTimeStyle.Underline(true).Render(label)
		}
		row = append(row, cell)
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func dayLabel(d models.DaySlots) string {
	return strings.ToUpper(d.Date.Format("Mon")) + " " + d.Date.Format("2")
}

func displayTime(hhmm string) string {
	return utils.To12Hour(hhmm)
}

func loadError(err error) string {
	if err == nil {
		return "Something went wrong."
	}
	return apperr.UserMessage(err)
}
