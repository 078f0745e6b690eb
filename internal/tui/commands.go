package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// replyTimeout bounds a single assistant request.
const replyTimeout = 60 * time.Second

// sendMessage asks the conversation for a reply off the update loop.
func (m Model) sendMessage(text string) tea.Cmd {
	ctx := m.ctx
	conversation := m.conversation
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()

		turn, err := conversation.Send(ctx, text)
		return replyMsg{turn: turn, err: err}
	}
}
