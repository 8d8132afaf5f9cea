package widget

import "github.com/charmbracelet/lipgloss"

// Widget-local styling. The surrounding chrome (header, transcript,
// footer) is styled by the TUI layer; widgets only style their own box,
// the way bubbles components carry their own styles.
var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	descStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Faint(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("245"))

	buttonFocusStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("63"))
)
