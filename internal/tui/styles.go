package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors tuned for dark terminals.
var (
	colorPrimary    = lipgloss.Color("205") // Pink/Magenta
	colorSuccess    = lipgloss.Color("42")  // Green
	colorWarning    = lipgloss.Color("220") // Yellow
	colorError      = lipgloss.Color("196") // Red
	colorMuted      = lipgloss.Color("245") // Gray
	colorAccent     = lipgloss.Color("141") // Light purple
	colorHeader     = lipgloss.Color("220") // Yellow for headers
	colorSelectedBg = lipgloss.Color("236")
	colorSelectedFg = lipgloss.Color("255")
	colorSection    = lipgloss.Color("213") // Light pink for section headers
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSection).
			Background(lipgloss.Color("238")).
			Padding(0, 1).
			MarginTop(1)
)

// ActiveStyle marks the active profile, here and in the CLI listing.
var ActiveStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

var (
	inactiveStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorHeader).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

var (
	errorMsgStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true).
			MarginTop(1)

	successMsgStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			MarginTop(1)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)
)

var (
	inputLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	inputFocusStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// ActiveMarker returns the marker shown next to a profile name.
func ActiveMarker(active bool) string {
	if active {
		return ActiveStyle.Render("●")
	}
	return inactiveStyle.Render("○")
}
