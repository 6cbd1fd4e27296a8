package chat

import (
	"sync"

	"github.com/nexa-ai/nexa-chat/internal/model/chat"
)

// EventType names a controller notification.
type EventType string

const (
	// EventTurn carries a newly appended turn.
	EventTurn EventType = "turn"
	// EventState carries an in-flight flag change.
	EventState EventType = "state"
)

// subscriberBuffer is the per-subscriber queue depth.
const subscriberBuffer = 16

// Event is published to subscribers in the order the controller applies changes.
type Event struct {
	Type      EventType  `json:"type"`
	SessionID string     `json:"sessionId"`
	Turn      *chat.Turn `json:"turn,omitempty"`
	InFlight  bool       `json:"inFlight"`
}

// fanout delivers events to subscribers without blocking the publisher.
// A subscriber whose buffer is full misses the event and should resync
// from a snapshot.
type fanout struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Event
	closed bool
}

func newFanout() *fanout {
	return &fanout{subs: make(map[uint64]chan Event)}
}

func (f *fanout) subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if sub, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(sub)
			}
		})
	}
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fanout) publish(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (f *fanout) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
