// Package cli renders spotting reports, identifications and prompts for the
// terminal.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	SkyColor     = lipgloss.Color("#4DA3FF")
	RunwayColor  = lipgloss.Color("#3A3F4B")
	ClearedColor = lipgloss.Color("#4ECDC4")
	CautionColor = lipgloss.Color("#FFE66D")
	MaydayColor  = lipgloss.Color("#FF6B6B")
	BeaconColor  = lipgloss.Color("#95E1D3")
	HazeColor    = lipgloss.Color("#7A7F8A")
)

var (
	// TitleStyle is used for section titles and box headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SkyColor).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(ClearedColor)
	WarningStyle = lipgloss.NewStyle().Foreground(CautionColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(MaydayColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(BeaconColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(HazeColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// PromptStyle is used for spotter input prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SkyColor)

	// BoxStyle frames a single report.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(RunwayColor).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(SkyColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	JetIcon     = "✈️"
	RadarIcon   = "📡"
	ChartIcon   = "📊"
	ChatIcon    = "💬"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the jet icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(JetIcon + " " + title)
}

// FormatPrompt renders prompt followed by an arrow.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox frames content under a title.
func RenderBox(title, content string) string {
	header := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
