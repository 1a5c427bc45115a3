package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/notifier"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case constants.StateDoctors:
		content = m.viewDoctors()
	case constants.StateAppointment:
		content = m.viewAppointment()
	case constants.StateMyAppointments:
		content = m.viewMyAppointments()
	case constants.StateProfile:
		content = docStyle.Render(m.profileModel.View())
	case constants.StateLogin:
		content = m.viewForm("Login or create an account", "Signing in...")
	case constants.StateEditProfile:
		content = m.viewForm("Edit profile", "Saving...")
	case constants.StateConfirmCancel:
		content = m.viewConfirmCancel()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewToast(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabViews []string
	active := tabIndex(m.state)
	for i, title := range []string{"Doctors", "My Appointments", "Profile"} {
		if i == active {
			tabViews = append(tabViews, activeTabStyle.Render(title))
		} else {
			tabViews = append(tabViews, inactiveTabStyle.Render(title))
		}
	}

	status := "not logged in"
	if p, ok := m.app.Profile(); ok {
		status = p.Name
	} else if m.app.Authenticated() {
		status = "logged in"
	}
	if m.app.Offline() {
		status += " | " + warningStyle.Render("offline")
	}
	tabViews = append(tabViews, statusStyle.Render(status))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabViews...)
}

func (m Model) viewDoctors() string {
	return docStyle.Render(m.doctorsModel.View())
}

func (m Model) viewAppointment() string {
	snap := m.view.Snapshot()
	var related = m.app.RelatedDoctors(snap.Doctor)
	if snap.State == constants.BookingLoading {
		related = nil
	}
	return docStyle.Render(m.slotsModel.View(snap, related, m.settings.CurrencySymbol, m.spinner.View()))
}

func (m Model) viewMyAppointments() string {
	if !m.app.Authenticated() {
		return docStyle.Render("Login to see your appointments. Press 'L' to login.")
	}
	return docStyle.Render(m.appointmentsModel.View())
}

func (m Model) viewForm(title, pending string) string {
	if m.form == nil {
		return docStyle.Render(m.spinner.View() + " " + pending)
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		activeTabStyle.Render(title),
		"",
		m.form.View(),
	))
}

func (m Model) viewConfirmCancel() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.Place(m.width, max(m.height-4, 0),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("This cannot be undone."),
			"",
			m.form.View(),
		),
	)
}

func (m Model) viewToast() string {
	if m.toast == "" {
		return ""
	}
	switch m.toastLevel {
	case notifier.LevelSuccess:
		return successStyle.Render("✓ " + m.toast)
	case notifier.LevelWarn:
		return warningStyle.Render("⚠ " + m.toast)
	case notifier.LevelError:
		return dangerStyle.Render("❌ " + m.toast)
	default:
		return infoStyle.Render(m.toast)
	}
}
