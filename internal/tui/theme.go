package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Title bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// Insight colors
	InsightWaitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#28A745")).Bold(true)
	InsightBuyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true)

	// Extremum colors, matching the PNG chart markers
	MinimumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0000FF")).Bold(true)
	MaximumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	PopupStyle   = BorderStyle.BorderForeground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	NoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#28A745"))
	SpinnerColor = lipgloss.Color("#7D56F4")

	// Form styles
	FocusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	BlurredLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)
