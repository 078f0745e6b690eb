package tui

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/aviation-bay/internal/chat"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/Veraticus/aviation-bay/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// fakeConversation echoes every message back.
type fakeConversation struct {
	err   error
	turns []model.Turn
	sent  []string
	mu    sync.Mutex
}

func (f *fakeConversation) Send(_ context.Context, text string) (model.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	if f.err != nil {
		return model.Turn{}, f.err
	}
	reply := model.Turn{Role: model.RoleModel, Text: "Roger: " + text, At: time.Now()}
	f.turns = append(f.turns,
		model.Turn{Role: model.RoleUser, Text: text},
		reply)
	return reply, nil
}

func (f *fakeConversation) Turns() []model.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Turn(nil), f.turns...)
}

func (f *fakeConversation) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = nil
}

func newTestModel(conv Conversation) Model {
	cfg := defaultConfig()
	cfg.TestMode = true
	cfg.Width = 80
	cfg.Height = 24
	return newModel(context.Background(), conv, cfg)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// collect runs cmd and returns every message it produces, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findReply(t *testing.T, msgs []tea.Msg) replyMsg {
	t.Helper()
	for _, msg := range msgs {
		if reply, ok := msg.(replyMsg); ok {
			return reply
		}
	}
	t.Fatal("no reply message produced")
	return replyMsg{}
}

func TestModel_WelcomeScreen(t *testing.T) {
	m := newTestModel(&fakeConversation{})

	view := stripANSI(m.View())
	assert.Contains(t, view, "Aviation Bay Assistant")
	assert.Contains(t, view, "Ask anything about the jets you spot")
	assert.Contains(t, view, "send")
}

func TestModel_SendAndReceive(t *testing.T) {
	conv := &fakeConversation{}
	m := newTestModel(conv)

	m = typeText(t, m, "what is an F-16?")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value(), "input is cleared on send")
	assert.Contains(t, stripANSI(m.View()), "thinking...")

	reply := findReply(t, collect(cmd))
	require.NoError(t, reply.err)
	assert.Equal(t, []string{"what is an F-16?"}, conv.sent)

	m, _ = update(t, m, reply)
	assert.False(t, m.waiting)

	view := stripANSI(m.View())
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "Roger: what is an F-16?")
	assert.NotContains(t, view, "thinking...")
}

func TestModel_IgnoresBlankAndOverlappingSends(t *testing.T) {
	conv := &fakeConversation{}
	m := newTestModel(conv)

	m = typeText(t, m, "   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.waiting)

	m = typeText(t, m, "first")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.waiting)

	m = typeText(t, m, "second")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "no send while a reply is pending")
	assert.Equal(t, "second", m.input.Value())
}

func TestModel_ShowsErrors(t *testing.T) {
	m := newTestModel(&fakeConversation{})

	m, _ = update(t, m, replyMsg{err: chat.ErrBusy})
	assert.Contains(t, stripANSI(m.View()), chat.ErrBusy.Error())

	m = typeText(t, m, "again")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.lastError, "a new send clears the error")
}

func TestModel_Clear(t *testing.T) {
	conv := &fakeConversation{}
	_, _ = conv.Send(context.Background(), "hello")
	m := newTestModel(conv)
	require.Contains(t, stripANSI(m.View()), "Roger: hello")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, conv.Turns())
	assert.Contains(t, stripANSI(m.View()), "Ask anything")
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(&fakeConversation{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestModel_Resize(t *testing.T) {
	m := newTestModel(&fakeConversation{})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 116, m.viewport.Width)
	assert.Equal(t, 40-chromeHeight, m.viewport.Height)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 8, Height: 4})
	assert.Equal(t, 10, m.viewport.Width)
	assert.Equal(t, 3, m.viewport.Height)
}

func TestModel_WrapsLongReplies(t *testing.T) {
	conv := &fakeConversation{}
	_, _ = conv.Send(context.Background(), strings.Repeat("contrail ", 30))
	m := newTestModel(conv)

	for _, line := range strings.Split(stripANSI(m.viewport.View()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), m.viewport.Width)
	}
}

func TestRunChat_RequiresConversation(t *testing.T) {
	err := RunChat(context.Background(), nil)
	assert.Error(t, err)
}

func TestThemesByName(t *testing.T) {
	assert.Equal(t, themes.CatppuccinMocha.Primary, themes.ByName("catppuccin").Primary)
	assert.Equal(t, themes.Default.Primary, themes.ByName("unknown").Primary)
}

func TestFakeConversationError(t *testing.T) {
	conv := &fakeConversation{err: errors.New("offline")}
	m := newTestModel(conv)
	m = typeText(t, m, "ping")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	reply := findReply(t, collect(cmd))
	assert.EqualError(t, reply.err, "offline")
}
