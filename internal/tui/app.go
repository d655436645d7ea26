package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AppModel is the root Bubble Tea model: the product home screen with the
// price-alert popup on top of it.
type AppModel struct {
	services Services
	popup    PopupModel
	width    int
	height   int
	quitting bool
}

// NewAppModel creates the root application model.
func NewAppModel(svc Services) AppModel {
	return AppModel{
		services: svc,
		popup:    NewPopupModel(svc),
	}
}

// Init initializes the root model.
func (m AppModel) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages, routing to the popup while it is open.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Text fields own the keyboard while the popup is open; only ctrl+c quits.
		if msg.String() == "ctrl+c" || (!m.popup.IsOpen() && key.Matches(msg, DefaultKeyMap.Quit)) {
			m.popup = m.popup.Close()
			m.quitting = true
			return m, tea.Quit
		}
		if !m.popup.IsOpen() {
			if key.Matches(msg, DefaultKeyMap.Open) {
				var cmd tea.Cmd
				m.popup, cmd = m.popup.Open()
				return m, cmd
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.popup, cmd = m.popup.Update(msg)
	return m, cmd
}

// View renders the title bar, the home screen and the popup when open.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	title := ActiveTabStyle.Render("pricecast")
	if m.services.Username != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, InactiveTabStyle.Render(m.services.Username))
	}

	if m.popup.IsOpen() {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.popup.View())
	}

	product := m.services.Product
	sections := []string{
		title,
		"",
		HeaderStyle.Render(product.Description),
		SubtextStyle.Render(fmt.Sprintf("Model %s", product.ModelID)),
		SubtextStyle.Render(product.URL),
		"",
	}
	if notice := m.popup.Notice(); notice != "" {
		sections = append(sections, NoticeStyle.Render(notice), "")
	}
	sections = append(sections, SubtextStyle.Render("[a] price alert  [q] quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates dimensions on the root model and the popup.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.popup.SetSize(w, h-2)
}

// Popup returns the popup model (for testing).
func (m AppModel) Popup() PopupModel { return m.popup }
