// Package tui provides the live fuzzing dashboard.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorRed     = lipgloss.Color("#FF0055")

	ColorHeaderBg = lipgloss.Color("#16213E")
	ColorDimText  = lipgloss.Color("#666666")
	ColorBright   = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMagenta).
			Background(ColorHeaderBg).
			Padding(0, 2)

	RunningStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	StoppedStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCyan).
			Padding(1, 2).
			MarginRight(1)

	LabelStyle = lipgloss.NewStyle().Foreground(ColorDimText).Width(18)
	ValueStyle = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)

	CrashStyle   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	TimeoutStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	FooterStyle = lipgloss.NewStyle().Foreground(ColorDimText).MarginTop(1)
	KeyStyle    = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	HelpStyle   = lipgloss.NewStyle().Foreground(ColorDimText)
)

func renderLabelValue(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

func renderHelp(key, description string) string {
	return KeyStyle.Render("["+key+"]") + " " + HelpStyle.Render(description)
}
