// Package apperrors defines the error-kind sentinels shared across the
// conversation runtime, using plain errors.New sentinels wrapped with
// fmt.Errorf("%w: %v", ...) rather than a custom error type.
package apperrors

import "errors"

var (
	// ErrProtocol marks a malformed frame, truncated stream, or oversized
	// payload. Fatal to the connection.
	ErrProtocol = errors.New("protocol error")

	// ErrModelStream marks a backend connection failure or unparseable
	// model output. Terminates the current turn only.
	ErrModelStream = errors.New("model stream error")

	// ErrTool wraps a tool handler failure. Conversation continues.
	ErrTool = errors.New("tool error")

	// ErrCapture marks an ASR failure. The ingest buffer is discarded and
	// listening continues.
	ErrCapture = errors.New("capture error")

	// ErrSynthesis marks a TTS failure for one sentence. Egress continues
	// with the next sentence.
	ErrSynthesis = errors.New("synthesis error")

	// ErrStorage marks a knowledge/behavior file read or write failure.
	ErrStorage = errors.New("storage error")

	// ErrEmptyTranscription marks a transcription that produced no text.
	ErrEmptyTranscription = errors.New("transcription returned empty text")

	// ErrUnknownTool marks dispatch of a tool name with no registered handler.
	ErrUnknownTool = errors.New("unknown tool")
)
