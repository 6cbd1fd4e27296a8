package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nexa-ai/nexa-chat/internal/model/chat"
	"github.com/nexa-ai/nexa-chat/internal/service/ai"
)

// FallbackAnswer replaces the answer of any failed cycle.
const FallbackAnswer = "Sorry - Something went wrong. Please try again!"

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrCycleInFlight = errors.New("a question is already being answered")
)

// Cycle reports the two turns appended by one accepted submission.
type Cycle struct {
	Question chat.Turn `json:"question"`
	Answer   chat.Turn `json:"answer"`
	Failed   bool      `json:"failed"`
}

// Controller drives question/answer cycles for a single session.
//
// Submit is a two-phase contract: the draft is cleared and the question
// appended before the completion call, the answer is appended after it
// resolves. At most one cycle runs at a time.
type Controller struct {
	id        string
	createdAt time.Time
	completer ai.Completer
	events    *fanout

	mu         sync.Mutex
	transcript *Transcript
	inFlight   bool
	draft      string
	lastActive time.Time
	closed     bool
}

// NewController creates an idle controller with an empty transcript.
func NewController(id string, completer ai.Completer) *Controller {
	now := time.Now().UTC()
	return &Controller{
		id:         id,
		createdAt:  now,
		completer:  completer,
		events:     newFanout(),
		transcript: NewTranscript(),
		lastActive: now,
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Submit runs one cycle for input. Blank input and submissions made while
// another cycle is in flight are rejected without touching any state.
// Completion failures are never returned; they become FallbackAnswer.
func (c *Controller) Submit(ctx context.Context, input string) (Cycle, error) {
	if strings.TrimSpace(input) == "" {
		return Cycle{}, ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Cycle{}, ErrSessionNotFound
	}
	if c.inFlight {
		c.mu.Unlock()
		return Cycle{}, ErrCycleInFlight
	}
	c.inFlight = true
	question := input
	c.draft = ""
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()

	c.events.publish(Event{Type: EventState, SessionID: c.id, InFlight: true})
	defer c.finish()

	questionTurn := c.append(chat.Question, question)

	// The browser may go away mid-request; the cycle still runs to completion.
	answer, err := c.complete(context.WithoutCancel(ctx), question)
	failed := err != nil
	if failed {
		log.Printf("[session] completion failed session=%s: %v", c.id, err)
		answer = FallbackAnswer
	}

	answerTurn := c.append(chat.Answer, answer)

	return Cycle{Question: questionTurn, Answer: answerTurn, Failed: failed}, nil
}

func (c *Controller) complete(ctx context.Context, question string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ai.ErrCompletionFailed, r)
		}
	}()
	return c.completer.Complete(ctx, question)
}

func (c *Controller) append(kind chat.TurnKind, text string) chat.Turn {
	c.mu.Lock()
	turn := c.transcript.Append(kind, text)
	c.mu.Unlock()

	c.events.publish(Event{Type: EventTurn, SessionID: c.id, Turn: &turn, InFlight: true})
	return turn
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()

	c.events.publish(Event{Type: EventState, SessionID: c.id, InFlight: false})
}

// SetDraft records the text currently being composed.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()
}

// Touch marks the session as in use by an open page.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()
}

// Draft returns the pending input.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// InFlight reports whether a cycle is awaiting its answer.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Snapshot returns a consistent copy of the session state.
func (c *Controller) Snapshot() chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return chat.Session{
		ID:        c.id,
		CreatedAt: c.createdAt,
		InFlight:  c.inFlight,
		Draft:     c.draft,
		Turns:     c.transcript.Turns(),
	}
}

// Subscribe registers for change events. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// retireIfIdle marks the controller closed when nothing has used it since
// cutoff. A cycle in flight or an attached subscriber keeps it alive. Once
// closed, Submit reports ErrSessionNotFound.
func (c *Controller) retireIfIdle(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.inFlight || c.events.count() > 0 || c.lastActive.After(cutoff) {
		return false
	}
	c.closed = true
	return true
}

func (c *Controller) close() {
	c.events.close()
}
