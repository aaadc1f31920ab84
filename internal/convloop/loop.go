// Package convloop implements the conversation loop: for each user input,
// assemble a prompt, stream one model turn through the streaming parser, and
// either dispatch a detected tool call and reinject its result as a
// synthetic turn (looping back to assembly) or finish the turn.
package convloop

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurelio-voice/aurelio-server/internal/logging"
	"github.com/aurelio-voice/aurelio-server/internal/metrics"
	"github.com/aurelio-voice/aurelio-server/internal/promptx"
	"github.com/aurelio-voice/aurelio-server/internal/session"
	"github.com/aurelio-voice/aurelio-server/internal/tools"
	"github.com/aurelio-voice/aurelio-server/internal/voice"
)

// Loop runs process_input over a Session, driven by a ModelClient, an
// Assembler, and a tool Dispatcher.
type Loop struct {
	Model      voice.ModelClient
	Assembler  *promptx.Assembler
	Dispatcher *tools.Dispatcher
	Log        logging.Logger
}

// New wires a Loop. log may be a logging.NoOpLogger in tests.
func New(model voice.ModelClient, assembler *promptx.Assembler, dispatcher *tools.Dispatcher, log logging.Logger) *Loop {
	if log == nil {
		log = &logging.NoOpLogger{}
	}
	return &Loop{Model: model, Assembler: assembler, Dispatcher: dispatcher, Log: log}
}

const closeVoiceChannelTool = "close_voice_channel"

// errStopStreaming is returned by the onToken callback to abandon the rest
// of the current model turn the instant the parser recognizes a complete
// tool call. It never reaches a caller outside this package.
var errStopStreaming = errors.New("tool call detected, stopping stream")

// Process runs process_input(text, session_id, is_voice): it resolves
// sess's turn state, appends the user turn, and loops assemble→stream→
// (dispatch-tool | finish) until the model produces a tool-free turn or
// requests channel close. It never returns an error: model and tool
// failures are surfaced as assistant-visible text or logged so the
// conversation continues instead of tearing down the connection.
func (l *Loop) Process(ctx context.Context, sess *session.Session, text string, isVoice bool) {
	start := time.Now()
	defer func() {
		metrics.E2EDuration.Observe(time.Since(start).Seconds())
	}()

	sess.Finished.Clear()
	if isVoice {
		sess.CloseVoice.Clear()
	}

	sess.Append(session.RoleUser, text)

	for {
		prompt := l.Assembler.Render(sess, isVoice)

		parser := promptx.NewParser()
		var assistantText string
		var detected *promptx.ToolCall

		llmTimer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("llm"))
		streamErr := l.Model.StreamComplete(ctx, prompt, func(chunk string) error {
			prose, call := parser.Feed(chunk)
			if prose != "" {
				assistantText += prose
				l.emit(sess, prose)
			}
			if call != nil {
				detected = call
				return errStopStreaming
			}
			return nil
		})
		llmTimer.ObserveDuration()

		if streamErr != nil && streamErr != errStopStreaming {
			l.Log.Warn("model stream error", "err", streamErr)
			errText := "\n[model error: " + streamErr.Error() + "]"
			assistantText += errText
			l.emit(sess, errText)
		}

		call := detected
		if call == nil {
			if assistantText != "" {
				sess.Append(session.RoleAssistant, assistantText)
			}
			break
		}

		if assistantText != "" {
			sess.Append(session.RoleAssistant, assistantText)
		}

		metrics.ToolDispatchTotal.WithLabelValues(call.Name).Inc()
		wrapped := l.Dispatcher.Dispatch(call.Name, call.Parameters, sess)
		sess.Append(session.RoleTool, wrapped)

		if call.Name == closeVoiceChannelTool {
			break
		}
		// Otherwise loop: re-assemble from the updated history.
	}

	sess.Responses <- session.ResponseSentinel
	sess.Finished.Set()
}

// emit pushes a prose chunk onto the response queue, blocking until the
// single consumer (TTS egress, or the chat handler) drains it. Once the
// session's Cancel latch is set (barge-in), further prose is not enqueued;
// otherwise chunks are never dropped or reordered, so this blocks rather
// than selecting on a default case.
func (l *Loop) emit(sess *session.Session, chunk string) {
	if sess.Cancel.IsSet() {
		return
	}
	sess.Responses <- chunk
}
