package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy   = lipgloss.Color("17")
	ColorBlue   = lipgloss.Color("39")
	ColorGray   = lipgloss.Color("244")
	ColorWhite  = lipgloss.Color("255")
	ColorRed    = lipgloss.Color("196")
	ColorGreen  = lipgloss.Color("46")
	ColorYellow = lipgloss.Color("220")
	ColorDim    = lipgloss.Color("238")
)

var (
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	activeSectionStyle = sectionStyle.
				BorderForeground(ColorBlue)

	titleStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite).
			Bold(true).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	errorStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorRed).
			Bold(true)

	labelStyle = lipgloss.NewStyle().Foreground(ColorGray)

	ledOnStyle  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	ledOffStyle = lipgloss.NewStyle().Foreground(ColorDim)

	inputOnStyle  = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	inputOffStyle = lipgloss.NewStyle().Foreground(ColorGray)

	cursorStyle = lipgloss.NewStyle().Reverse(true)

	segmentStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)

// stateStyle colors the connection indicator.
func stateStyle(connected, connecting bool) lipgloss.Style {
	switch {
	case connected:
		return statusStyle.Foreground(ColorGreen).Bold(true)
	case connecting:
		return statusStyle.Foreground(ColorYellow)
	}
	return statusStyle.Foreground(ColorGray)
}
