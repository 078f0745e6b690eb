// Package tui implements the full-screen chat with the aviation assistant.
package tui

import (
	"context"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/tui/themes"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Conversation is the chat session the screen drives.
type Conversation interface {
	Send(ctx context.Context, text string) (model.Turn, error)
	Turns() []model.Turn
	Clear()
}

// Layout rows outside the transcript: header, input, help, transcript border.
const chromeHeight = 6

// Model holds the chat screen state.
type Model struct {
	ctx          context.Context
	conversation Conversation
	lastError    error
	theme        themes.Theme
	keymap       KeyMap
	help         help.Model
	input        textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	config       Config
	pendingText  string
	width        int
	height       int
	waiting      bool
	quitting     bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, conversation Conversation, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Ask about the aircraft you spotted..."
	input.Prompt = "✈ "
	input.CharLimit = 500
	input.Focus()
	if cfg.TestMode {
		input.Cursor.SetMode(cursor.CursorStatic)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spin.Style.Foreground(cfg.Theme.Primary)

	m := Model{
		ctx:          ctx,
		conversation: conversation,
		theme:        cfg.Theme,
		keymap:       DefaultKeyMap(),
		help:         help.New(),
		input:        input,
		spinner:      spin,
		config:       cfg,
		viewport:     viewport.New(cfg.Width, 1),
	}
	m.resize(cfg.Width, cfg.Height)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.config.TestMode {
		return nil
	}
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Send):
			return m.submit()

		case key.Matches(msg, m.keymap.Clear):
			if !m.waiting {
				m.conversation.Clear()
				m.lastError = nil
				m.refreshTranscript()
			}
			return m, nil

		case key.Matches(msg, m.keymap.ScrollUp), key.Matches(msg, m.keymap.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case replyMsg:
		m.waiting = false
		m.pendingText = ""
		m.lastError = msg.err
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends the input line unless it is blank or a reply is pending.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}

	m.input.Reset()
	m.waiting = true
	m.pendingText = text
	m.lastError = nil
	m.refreshTranscript()

	return m, tea.Batch(m.spinner.Tick, m.sendMessage(text))
}

// resize fits the transcript between the header and the input line.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.input.Width = max(width-4, 10)
	m.help.Width = width
	m.viewport.Width = max(width-4, 10)
	m.viewport.Height = max(height-chromeHeight, 3)
	m.refreshTranscript()
}

// refreshTranscript re-renders the conversation and keeps the newest turn visible.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
