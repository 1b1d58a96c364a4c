package chat

import (
	"testing"

	"finsight/internal/model"
)

func TestSendAppendsUserAndPlaceholder(t *testing.T) {
	s := NewSession()

	if !s.Send("what drove cost up?") {
		t.Fatal("Send on idle session must succeed")
	}
	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want user + placeholder", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "what drove cost up?" {
		t.Fatalf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "" {
		t.Fatalf("placeholder = %+v", msgs[1])
	}
	if s.Phase() != PhaseSending {
		t.Fatalf("phase = %v", s.Phase())
	}
}

func TestSendWhileBusyRefused(t *testing.T) {
	s := NewSession()
	s.Send("first")
	if s.Send("second") {
		t.Fatal("Send while an exchange is in flight must be refused")
	}
	if len(s.Messages()) != 2 {
		t.Fatalf("len = %d, second Send must not append", len(s.Messages()))
	}
}

func TestAppendChunkExtendsInPlace(t *testing.T) {
	s := NewSession()
	s.Send("q")

	for _, frag := range []string{"Rev", "enue ", "rose"} {
		s.AppendChunk(frag)
	}
	last, _ := s.Last()
	if last.Content != "Revenue rose" {
		t.Fatalf("assistant content = %q", last.Content)
	}
	if len(s.Messages()) != 2 {
		t.Fatal("chunks must never create new messages")
	}
	if s.Phase() != PhaseStreaming {
		t.Fatalf("phase = %v, want streaming", s.Phase())
	}

	s.Finish()
	if s.Busy() {
		t.Fatal("Finish must return the session to idle")
	}
}

func TestFailKeepsPartialContent(t *testing.T) {
	s := NewSession()
	s.Send("q")
	s.AppendChunk("partial ans")
	s.Fail()

	if s.Busy() {
		t.Fatal("Fail must return the session to idle")
	}
	last, _ := s.Last()
	if last.Content != "partial ans" {
		t.Fatalf("partial content dropped: %q", last.Content)
	}

	// The next exchange starts cleanly after a failure.
	if !s.Send("retry") {
		t.Fatal("Send after Fail must succeed")
	}
	if len(s.Messages()) != 4 {
		t.Fatalf("len = %d", len(s.Messages()))
	}
}

func TestAppendChunkIgnoredWhenIdle(t *testing.T) {
	s := NewSession()
	s.AppendChunk("stray")
	if len(s.Messages()) != 0 {
		t.Fatal("stray chunk must be ignored on an empty session")
	}
}
