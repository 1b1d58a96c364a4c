package model

import "time"

// ChatRole identifies who authored a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in the assistant transcript. Messages are
// append-only except for the currently streaming assistant message, whose
// Content grows in place as chunks arrive.
type ChatMessage struct {
	ID        string
	Role      ChatRole
	Content   string
	Timestamp time.Time
}

// User is the authenticated caller, as returned by /auth/me. Role drives
// the default hierarchy mode on the dashboard.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
