// Package voice ties the frame codec, audio ingest pipeline, TTS egress
// pipeline, and conversation loop together behind the voice protocol state
// machine. The external collaborators below (Transcriber, ModelClient,
// Synthesizer, VoiceActivityDetector) are interfaces so concrete adapters
// can live under internal/providers rather than inside this package.
package voice

import "context"

// Segment is one piece of a transcribed utterance.
type Segment struct {
	Text string
}

// Transcriber turns a buffered utterance (mono float32 PCM at 16 kHz) into
// text segments. The utterance text is the concatenation of segment texts.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) ([]Segment, error)
	Name() string
}

// ModelClient streams one model turn for a rendered prompt, invoking onToken
// for each chunk of output as it arrives. onToken returning an error aborts
// the stream early (used for cooperative cancellation on barge-in).
type ModelClient interface {
	StreamComplete(ctx context.Context, prompt string, onToken func(chunk string) error) error
	Name() string
}

// Synthesizer renders text to speech as mono float32 PCM at its own native
// sample rate; the TTS Egress Pipeline resamples to 16 kHz.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (pcm []float32, sampleRate int, err error)
	Name() string
}

// VoiceActivityDetector classifies one ingest frame as speech or silence.
// Clone returns an independent detector for a new connection so internal
// state (e.g. a running noise floor estimate) isn't shared across sessions.
type VoiceActivityDetector interface {
	IsSpeech(frame []float32) bool
	Reset()
	Clone() VoiceActivityDetector
}
