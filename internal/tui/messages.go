package tui

import "github.com/Veraticus/aviation-bay/internal/model"

// replyMsg carries the assistant's answer back to the update loop.
type replyMsg struct {
	err  error
	turn model.Turn
}
