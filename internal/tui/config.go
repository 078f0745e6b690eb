package tui

import (
	"github.com/Veraticus/aviation-bay/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme  themes.Theme
	Title  string
	Width  int
	Height int

	// TestMode disables the alternate screen and cursor blinking.
	TestMode bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:  themes.Default,
		Title:  "Aviation Bay Assistant",
		Width:  80,
		Height: 24,
	}
}

// WithTheme sets the theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithSize sets the initial dimensions used before the first resize.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithTestMode enables test mode.
func WithTestMode() Option {
	return func(c *Config) {
		c.TestMode = true
	}
}
