package tui

import "github.com/charmbracelet/lipgloss"

// Palette: amber accents, green for loaded indexes, orange for ones that
// still need an ingest run.
var (
	accent = lipgloss.Color("214")
	muted  = lipgloss.Color("243")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle      = lipgloss.NewStyle().Foreground(muted)
	helpStyle     = lipgloss.NewStyle().Foreground(muted).Italic(true)

	queryStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	listItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("58")).
			Padding(0, 1)
)
