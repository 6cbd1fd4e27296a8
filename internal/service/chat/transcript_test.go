package chat

import (
	"testing"

	"github.com/nexa-ai/nexa-chat/internal/model/chat"
)

func TestTranscriptAppendAssignsIndexes(t *testing.T) {
	tr := NewTranscript()

	q := tr.Append(chat.Question, "hi")
	a := tr.Append(chat.Answer, "**hello**")

	if q.Index != 0 || a.Index != 1 {
		t.Fatalf("unexpected indexes %d, %d", q.Index, a.Index)
	}
	if n := len(tr.Turns()); n != 2 {
		t.Fatalf("expected 2 turns, got %d", n)
	}
	if q.CreatedAt.IsZero() || a.CreatedAt.Before(q.CreatedAt) {
		t.Fatalf("unexpected timestamps %v, %v", q.CreatedAt, a.CreatedAt)
	}
	if a.Text != "**hello**" {
		t.Fatalf("text should be stored verbatim, got %q", a.Text)
	}
}

func TestTranscriptTurnsIsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(chat.Question, "original")

	turns := tr.Turns()
	turns[0].Text = "edited"

	if got := tr.Turns()[0].Text; got != "original" {
		t.Fatalf("transcript was mutated through a copy: %q", got)
	}
}
