package chat

import "time"

// Session is a point-in-time view of one page-load conversation.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	InFlight  bool      `json:"inFlight"`
	Draft     string    `json:"draft"`
	Turns     []Turn    `json:"turns"`
}
