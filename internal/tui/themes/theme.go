// Package themes holds the color schemes for the chat screen.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	UserLabel  lipgloss.Style
	ModelLabel lipgloss.Style
	Pending    lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	Transcript lipgloss.Style
	Input      lipgloss.Style
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
}

func newTheme(primary, secondary, foreground, muted, border, errColor lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Muted:   muted,
		Border:  border,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		Normal: lipgloss.NewStyle().
			Foreground(foreground),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(secondary),
		ModelLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Pending: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(muted),
		Transcript: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(border),
	}
}

// Default is the default theme.
var Default = newTheme(
	lipgloss.Color("#4DA3FF"),
	lipgloss.Color("#FFE66D"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#ef4444"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	lipgloss.Color("#89b4fa"),
	lipgloss.Color("#f9e2af"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#f38ba8"),
)

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
