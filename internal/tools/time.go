package tools

import (
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// NewGetCurrentTimeSpec returns the get_current_time tool, formatted as a
// zero-padded 12-hour clock time (e.g. "02:05PM").
func NewGetCurrentTimeSpec() Spec {
	return Spec{
		Name:         "get_current_time",
		ParamSummary: "",
		Handler: func(_ Params, sess *session.Session) (Result, error) {
			enqueue(sess, "Checking Time.")
			now := time.Now().Format("03:04PM")
			return Result{"response": "current time: " + now}, nil
		},
	}
}

// enqueue pushes a short UX status string to the session's response queue
// without blocking indefinitely; a full queue drops the status rather than
// stalling the tool handler.
func enqueue(sess *session.Session, text string) {
	select {
	case sess.Responses <- text:
	default:
	}
}
