// File: internal/conversation/session.go
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the session transcript.
type Message struct {
	Role         string
	Content      string
	OutOfContext bool
	SentAt       time.Time
}

// ExchangeResult is what the relay returns for a completed exchange.
// ThreadID is authoritative: the session adopts it even when it differs
// from the thread it sent with.
type ExchangeResult struct {
	Reply    string
	ThreadID string
}

// Relay delivers a user message for the given chat and returns the
// assistant's reply. A zero chatID is never passed to the relay.
type Relay interface {
	SendMessage(ctx context.Context, chatID uint, threadID, content string) (*ExchangeResult, error)
}

// State describes where the current exchange stands.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session holds the transcript and exchange state for one active chat.
// All methods are safe for concurrent use. Switching chats bumps an
// internal generation counter so that a reply still in flight for the
// previous chat is discarded instead of landing in the new transcript.
type Session struct {
	relay Relay

	mu         sync.Mutex
	chatID     uint
	threadID   string
	messages   []Message
	state      State
	generation uint64
	banner     string
}

func NewSession(relay Relay) *Session {
	return &Session{relay: relay}
}

// SelectChat makes chatID the active chat and resets the transcript and
// exchange state. Reselecting the active chat is a no-op, so an exchange
// already in flight keeps its gate. The thread id is always absent right
// after a chat-changing selection; only a relay response establishes
// one. Passing chatID 0 deselects.
func (s *Session) SelectChat(chatID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chatID == s.chatID {
		return
	}
	s.chatID = chatID
	s.threadID = ""
	s.messages = nil
	s.state = StateIdle
	s.banner = ""
	s.generation++
}

// SetTranscript replaces the transcript, typically with history loaded
// from the server after selecting a chat. It does not touch the exchange
// state.
func (s *Session) SetTranscript(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]Message(nil), msgs...)
}

// Send appends content as a user message, delivers it through the relay,
// and appends the assistant's reply. On relay failure a fallback
// assistant message is appended in place of the reply and the error is
// returned alongside it. If the session switched chats while the
// exchange was in flight, the reply is dropped and ErrExchangeSuperseded
// is returned.
func (s *Session) Send(ctx context.Context, content string) (Message, error) {
	content = strings.TrimSpace(content)

	s.mu.Lock()
	if s.chatID == 0 {
		s.mu.Unlock()
		return Message{}, ErrNoChatSelected
	}
	if content == "" {
		s.mu.Unlock()
		return Message{}, ErrEmptyMessage
	}
	if s.state == StatePending {
		s.mu.Unlock()
		return Message{}, ErrExchangeInFlight
	}

	chatID, threadID := s.chatID, s.threadID
	gen := s.generation
	s.messages = append(s.messages, Message{
		Role:    RoleUser,
		Content: content,
		SentAt:  time.Now(),
	})
	s.state = StatePending
	s.banner = ""
	s.mu.Unlock()

	result, err := s.relay.SendMessage(ctx, chatID, threadID, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// The session moved on while this exchange was in flight.
		return Message{}, ErrExchangeSuperseded
	}

	if err != nil {
		reply := Message{
			Role:         RoleAssistant,
			Content:      FallbackReply,
			OutOfContext: true,
			SentAt:       time.Now(),
		}
		s.messages = append(s.messages, reply)
		s.state = StateFailed
		s.banner = err.Error()
		return reply, fmt.Errorf("send message: %w", err)
	}

	if result.ThreadID != "" {
		s.threadID = result.ThreadID
	}
	reply := Message{
		Role:         RoleAssistant,
		Content:      result.Reply,
		OutOfContext: IsOutOfContext(result.Reply),
		SentAt:       time.Now(),
	}
	s.messages = append(s.messages, reply)
	s.state = StateSettled
	return reply, nil
}

// Busy reports whether an exchange is awaiting its reply.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePending
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ChatID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Banner returns the current error banner, empty when there is none.
func (s *Session) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// DismissError clears the error banner without touching the transcript.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = ""
	if s.state == StateFailed {
		s.state = StateIdle
	}
}
