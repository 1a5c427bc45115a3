package profile

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prescripto/prescripto/internal/models"
)

var (
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type Model struct {
	viewport viewport.Model
	Profile  *models.UserProfile
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Profile == nil {
		return "Not logged in. Press enter to login or create an account."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetProfile shows p, or the logged-out prompt when p is nil.
func (m *Model) SetProfile(p *models.UserProfile) {
	m.Profile = p
	m.Render()
}

func (m *Model) Render() {
	if m.Profile == nil {
		m.viewport.SetContent("")
		return
	}
	p := m.Profile

	var b strings.Builder
	b.WriteString(nameStyle.Render(p.Name))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("CONTACT INFORMATION"))
	b.WriteString("\n")
	row(&b, "Email", p.Email)
	row(&b, "Phone", p.Phone)
	row(&b, "Address", strings.Trim(p.Address.Line1+", "+p.Address.Line2, ", "))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("BASIC INFORMATION"))
	b.WriteString("\n")
	row(&b, "Gender", p.Gender)
	row(&b, "Birthday", p.DOB)
	if p.Image != "" {
		row(&b, "Image", p.Image)
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("") + "[e] edit  [o] logout")
	m.viewport.SetContent(b.String())
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "%s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}
