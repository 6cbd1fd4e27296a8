package chat

import (
	"time"

	"github.com/nexa-ai/nexa-chat/internal/model/chat"
)

// Transcript is the ordered, append-only turn log of one session.
// It is not safe for concurrent use; Controller serializes access.
type Transcript struct {
	turns []chat.Turn
	now   func() time.Time
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		turns: make([]chat.Turn, 0, 16),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Append records a new turn and returns it.
func (t *Transcript) Append(kind chat.TurnKind, text string) chat.Turn {
	turn := chat.Turn{
		Index:     len(t.turns),
		Kind:      kind,
		Text:      text,
		CreatedAt: t.now(),
	}
	t.turns = append(t.turns, turn)
	return turn
}

// Turns returns a copy of the recorded turns in insertion order.
func (t *Transcript) Turns() []chat.Turn {
	copied := make([]chat.Turn, len(t.turns))
	copy(copied, t.turns)
	return copied
}
