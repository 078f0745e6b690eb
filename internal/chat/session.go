// Package chat keeps a conversation with the aviation assistant.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/Veraticus/aviation-bay/internal/llm"
	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/jonboulle/clockwork"
)

// DefaultHistory is the number of recent turns sent as context.
const DefaultHistory = 6

// Persona is prepended to the first message of a conversation.
const Persona = "You are an expert Aviation Spotter AI for the Aviation Bay app. " +
	"Only answer about aircraft, jets, aviation, jet spotting, airplane identification. " +
	"Be concise and friendly.\n"

// Replies shown in place of an assistant answer.
const (
	ReplyRateLimited = "Too many requests. Wait a moment."
	ReplyBlocked     = "Cannot respond to that question."
	ReplySetupIssue  = "API setup issue."
	ReplyFailed      = "Sorry, please try again."
	ReplyEmpty       = "Sorry, I didn't get a response. Try again or check the console for details."
)

var (
	// ErrEmptyMessage is returned when Send is called with blank text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned when Send is called while a reply is pending.
	ErrBusy = errors.New("a reply is already pending")
)

// Session is a single conversation. It is safe for concurrent use, but only
// one Send may be in flight at a time.
type Session struct {
	chatter llm.Chatter
	clock   clockwork.Clock
	logger  *slog.Logger
	turns   []model.Turn
	history int
	busy    bool
	mu      sync.Mutex
}

// NewSession creates an empty conversation. A history of zero or less uses
// DefaultHistory.
func NewSession(chatter llm.Chatter, history int, clock clockwork.Clock, logger *slog.Logger) *Session {
	if history <= 0 {
		history = DefaultHistory
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = common.DiscardLogger()
	}
	return &Session{
		chatter: chatter,
		clock:   clock,
		logger:  logger,
		history: history,
	}
}

// Send records the user's message and returns the assistant's reply. Provider
// failures become assistant turns with a short explanation; only blank input
// and overlapping sends return an error.
func (s *Session) Send(ctx context.Context, text string) (model.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return model.Turn{}, ErrBusy
	}
	s.busy = true
	s.turns = append(s.turns, model.Turn{At: s.clock.Now(), Role: model.RoleUser, Text: text})
	window := s.contextWindow()
	s.mu.Unlock()

	reply, err := s.chatter.Reply(ctx, window)
	switch {
	case err != nil:
		s.logger.Warn("assistant reply failed", "error", err)
		reply = model.Turn{Role: model.RoleModel, Text: FailureReply(err)}
	case strings.TrimSpace(reply.Text) == "":
		s.logger.Warn("assistant returned no text")
		reply = model.Turn{Role: model.RoleModel, Text: ReplyEmpty}
	}
	reply.Role = model.RoleModel
	reply.At = s.clock.Now()

	s.mu.Lock()
	s.turns = append(s.turns, reply)
	s.busy = false
	s.mu.Unlock()

	return reply, nil
}

// contextWindow returns the last history turns with user or model roles. The
// persona is prepended when the window holds a single turn. Callers hold mu.
func (s *Session) contextWindow() []model.Turn {
	start := len(s.turns) - s.history
	if start < 0 {
		start = 0
	}

	window := make([]model.Turn, 0, len(s.turns)-start)
	for _, t := range s.turns[start:] {
		if t.Role == model.RoleUser || t.Role == model.RoleModel {
			window = append(window, t)
		}
	}

	if len(window) == 1 {
		window[0].Text = Persona + window[0].Text
	}
	return window
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Turn(nil), s.turns...)
}

// Busy reports whether a reply is pending.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Clear forgets the conversation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// FailureReply maps a provider error onto the reply shown to the spotter.
func FailureReply(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, common.ErrQuotaExceeded), errors.Is(err, common.ErrRateLimit),
		strings.Contains(msg, "quota"), strings.Contains(msg, "limit"):
		return ReplyRateLimited
	case errors.Is(err, llm.ErrContentBlocked), strings.Contains(msg, "SAFETY"):
		return ReplyBlocked
	case errors.Is(err, common.ErrMissingConfig), strings.Contains(msg, "API key"):
		return ReplySetupIssue
	}
	return ReplyFailed
}
