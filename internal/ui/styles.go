package ui

import (
	"github.com/charmbracelet/lipgloss"

	"crmdash/internal/util"
)

// Color palette
var (
	ColorBase    = lipgloss.Color("#1B1F2A")
	ColorSurface = lipgloss.Color("#262C3B")
	ColorMuted   = lipgloss.Color("#7A859E")
	ColorText    = lipgloss.Color("#D8DEEB")
	ColorAccent  = lipgloss.Color("#7AA2F7")
	ColorGreen   = lipgloss.Color("#9ECE6A")
	ColorRed     = lipgloss.Color("#F7768E")
	ColorYellow  = lipgloss.Color("#E0AF68")
	ColorBlue    = lipgloss.Color("#7DCFFF")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1).
				Background(ColorSurface)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorAccent).
				Padding(0, 1)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorSurface).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurface).
			Padding(0, 1)

	CardValueStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BreadcrumbActiveStyle = lipgloss.NewStyle().
				Foreground(ColorAccent)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(1, 4)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// ToneStyle colors a badge by its tone.
func ToneStyle(t util.Tone) lipgloss.Style {
	switch t {
	case util.ToneSuccess:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case util.ToneWarning:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case util.ToneDanger:
		return lipgloss.NewStyle().Foreground(ColorRed)
	}
	return lipgloss.NewStyle().Foreground(ColorBlue)
}
