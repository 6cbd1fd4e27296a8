package chat

import "time"

// TurnKind distinguishes user questions from generated answers.
type TurnKind string

const (
	Question TurnKind = "question"
	Answer   TurnKind = "answer"
)

// Turn is a single immutable transcript entry.
type Turn struct {
	Index     int       `json:"index"`
	Kind      TurnKind  `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
