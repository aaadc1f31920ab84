// Package httpapi exposes the HTTP chat and admin surfaces: handler structs
// (ChatHandler, AdminHandler) holding shared backend clients, with one
// ServeHTTP call per request. The
// chat surface streams prose chunks to the client over Server-Sent Events
// rather than a bidirectional socket, since it only needs server-to-client
// delivery.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/aurelio-voice/aurelio-server/internal/logging"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// Conversation is the subset of convloop.Loop's behavior ChatHandler depends
// on, kept as an interface so it can be tested without a real ModelClient.
type Conversation interface {
	Process(ctx context.Context, sess *session.Session, text string, isVoice bool)
}

// SessionStore resolves a session_id to a live Session, creating one for an
// id it does not hold yet, and removes one once its chat tab is discarded.
type SessionStore interface {
	Get(id string) (*session.Session, bool)
	GetOrCreate(id string) *session.Session
	Delete(id string)
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatHandler serves the text chat UI's streaming endpoint.
type ChatHandler struct {
	Sessions SessionStore
	Conv     Conversation
	Log      logging.Logger
}

// NewChatHandler builds a ChatHandler. log may be nil.
func NewChatHandler(sessions SessionStore, conv Conversation, log logging.Logger) *ChatHandler {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &ChatHandler{Sessions: sessions, Conv: conv, Log: log}
}

// ServeHTTP handles POST /api/chat: it appends the message to the named (or
// newly created) session, runs the Conversation Loop in the background, and
// streams response chunks as they're produced as text/event-stream frames,
// terminated by a "[DONE]" event once the loop's terminal sentinel arrives.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := h.Sessions.GetOrCreate(sessionID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-Id", sessionID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	go h.Conv.Process(ctx, sess, req.Message, false)

	var mu sync.Mutex
	write := func(event, data string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, sseEscape(data))
		flusher.Flush()
	}

	for {
		select {
		case chunk, open := <-sess.Responses:
			if !open {
				write("done", "[DONE]")
				return
			}
			if chunk == session.ResponseSentinel {
				write("done", "[DONE]")
				return
			}
			write("message", chunk)
		case <-ctx.Done():
			// The client dropped the connection before the turn finished
			// streaming (tab closed, navigated away); nothing will ever
			// send session_id again, so the session is discarded rather
			// than left in the store indefinitely.
			h.Sessions.Delete(sessionID)
			return
		}
	}
}

// sseEscape flattens newlines so a multi-line chunk still fits SSE's
// one-data-line-per-event framing; the client reassembles with its own
// rendering of "\n".
func sseEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, '\\', 'n')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
