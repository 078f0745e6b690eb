package model

import "time"

// Role identifies the author of a chat turn.
type Role string

// Role constants. The assistant side is called "model" to match the Gemini API.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in a conversation with the aviation assistant.
type Turn struct {
	At   time.Time `json:"at"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
}
