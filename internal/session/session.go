// Package session implements the per-connection/per-chat-tab Session record:
// ordered turn history, a single-producer/single-consumer response queue, and
// three latching events (finished, close-voice, cancel). Cross-thread contact
// points are split into their own small types so each field has exactly one
// writer rather than sharing one RWMutex-guarded struct.
package session

import (
	"sync"
	"time"
)

// Role identifies who authored a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Turn is one immutable entry in a Session's history.
type Turn struct {
	Role    Role
	Content string
}

// ResponseSentinel is pushed onto Responses as the last value of a turn,
// meaning "turn complete". It uses a NUL byte, which never appears in
// prose or TTS sentence text, so consumers can tell it apart from a
// legitimately empty chunk.
const ResponseSentinel = "\x00"

// LatchEvent is a once-settable, many-times-readable event: it starts unset,
// can be Set exactly meaningfully many times (idempotent), and Clear resets
// it for the next utterance/turn. Modeled on sync.Once's one-way latch but
// reusable, since cancel/close both need to reset between turns.
type LatchEvent struct {
	mu  sync.Mutex
	set bool
}

// Set latches the event.
func (e *LatchEvent) Set() {
	e.mu.Lock()
	e.set = true
	e.mu.Unlock()
}

// Clear resets the event so it can be observed unset again.
func (e *LatchEvent) Clear() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
}

// IsSet reports whether the event is currently latched.
func (e *LatchEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Session is the conversation state for one voice connection or chat tab.
type Session struct {
	ID string

	mu      sync.RWMutex
	history []Turn

	// Responses is the single-producer (Streaming Parser / Conversation
	// Loop), single-consumer (TTS Egress / chat HTTP handler) bounded FIFO
	// of prose chunks for the current turn.
	Responses chan string

	// Finished latches once per process_input call, cleared at the start
	// of the next one.
	Finished *LatchEvent

	// CloseVoice latches when the close_voice_channel tool runs.
	CloseVoice *LatchEvent

	// Cancel latches on barge-in (INT0); cleared when the next user
	// utterance begins.
	Cancel *LatchEvent

	CreatedAt time.Time
}

// New creates a Session with a fresh response queue and unset events.
func New(id string) *Session {
	return &Session{
		ID:         id,
		history:    make([]Turn, 0, 8),
		Responses:  make(chan string, 64),
		Finished:   &LatchEvent{},
		CloseVoice: &LatchEvent{},
		Cancel:     &LatchEvent{},
		CreatedAt:  time.Now(),
	}
}

// Append adds an immutable Turn to history. Turns are never reordered or
// mutated after appending.
func (s *Session) Append(role Role, content string) {
	s.mu.Lock()
	s.history = append(s.history, Turn{Role: role, Content: content})
	s.mu.Unlock()
}

// History returns a copy of the turn sequence so callers can't mutate it
// out from under concurrent readers.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// LastAssistant returns the content of the most recent assistant turn, or
// "" if none exists yet.
func (s *Session) LastAssistant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == RoleAssistant {
			return s.history[i].Content
		}
	}
	return ""
}
