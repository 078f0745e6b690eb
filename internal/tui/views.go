package tui

import (
	"strings"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/charmbracelet/lipgloss"
)

const welcomeText = "Ask anything about the jets you spot: what type it was, what it carries, where it is headed."

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.theme.Title.Render("✈️  "+m.config.Title) + "  " +
		m.theme.Subtitle.Render("Gemini-backed aviation chat")

	body := m.theme.Transcript.Width(max(m.width-2, 10)).Render(m.viewport.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		m.theme.Input.Width(max(m.width-2, 10)).Render(m.input.View()),
		m.renderStatus(),
	)
}

// renderStatus shows the last error or the key help.
func (m Model) renderStatus() string {
	if m.lastError != nil {
		return m.theme.Error.Render("✗ " + m.lastError.Error())
	}
	return m.help.ShortHelpView(m.keymap.ShortHelp())
}

// renderTranscript renders every turn plus the message awaiting a reply.
func (m Model) renderTranscript() string {
	turns := m.conversation.Turns()
	if len(turns) == 0 && m.pendingText == "" {
		return m.theme.Subtitle.Render(welcomeText)
	}

	width := max(m.viewport.Width-2, 10)
	wrap := m.theme.Normal.Width(width)

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderLabel(turn.Role))
		b.WriteString("\n")
		b.WriteString(wrap.Render(turn.Text))
	}

	if m.waiting {
		// The user turn is recorded by the session once the request starts;
		// show it here until the reply arrives if it is not there yet.
		if n := len(turns); n == 0 || turns[n-1].Role != model.RoleUser || turns[n-1].Text != m.pendingText {
			if len(turns) > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(m.renderLabel(model.RoleUser))
			b.WriteString("\n")
			b.WriteString(wrap.Render(m.pendingText))
		}
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + m.theme.Pending.Render(" thinking..."))
	}

	return b.String()
}

func (m Model) renderLabel(role model.Role) string {
	if role == model.RoleUser {
		return m.theme.UserLabel.Render("You")
	}
	return m.theme.ModelLabel.Render("Bay")
}
