package chat

import (
	"fmt"
	"time"

	"finsight/internal/model"
)

// Phase is the transcript's exchange state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
)

// Session is an append-only message transcript. One exchange is in flight
// at a time; streamed fragments extend the last assistant message in place.
// Not safe for concurrent use; the dashboard drives it from its event loop.
type Session struct {
	messages []model.ChatMessage
	phase    Phase
	nextID   int
}

// NewSession returns an empty transcript.
func NewSession() *Session {
	return &Session{}
}

// Messages returns the transcript in order.
func (s *Session) Messages() []model.ChatMessage {
	return s.messages
}

// Phase returns the current exchange state.
func (s *Session) Phase() Phase {
	return s.phase
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	return s.phase != PhaseIdle
}

// Send appends the user's message and an empty assistant placeholder that
// subsequent AppendChunk calls fill in. No-op while an exchange is already
// in flight.
func (s *Session) Send(text string) bool {
	if s.phase != PhaseIdle {
		return false
	}
	now := time.Now()
	s.messages = append(s.messages,
		model.ChatMessage{ID: s.id(), Role: model.RoleUser, Content: text, Timestamp: now},
		model.ChatMessage{ID: s.id(), Role: model.RoleAssistant, Timestamp: now},
	)
	s.phase = PhaseSending
	return true
}

// AppendChunk extends the current assistant message with a streamed
// fragment. The first fragment moves the exchange into streaming.
func (s *Session) AppendChunk(fragment string) {
	if len(s.messages) == 0 || s.phase == PhaseIdle {
		return
	}
	last := &s.messages[len(s.messages)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	last.Content += fragment
	s.phase = PhaseStreaming
}

// Finish completes the current exchange.
func (s *Session) Finish() {
	s.phase = PhaseIdle
}

// Fail aborts the current exchange. Partial assistant content already
// appended stays in the transcript.
func (s *Session) Fail() {
	s.phase = PhaseIdle
}

// Last returns the most recent message, if any.
func (s *Session) Last() (model.ChatMessage, bool) {
	if len(s.messages) == 0 {
		return model.ChatMessage{}, false
	}
	return s.messages[len(s.messages)-1], true
}

func (s *Session) id() string {
	s.nextID++
	return fmt.Sprintf("msg-%d", s.nextID)
}
