package voice

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurelio-voice/aurelio-server/internal/logging"
	"github.com/aurelio-voice/aurelio-server/internal/metrics"
	"github.com/aurelio-voice/aurelio-server/internal/protocol"
)

// DefaultVADTimeout is the silence duration that ends an utterance while
// recording, used when the caller doesn't supply one.
const DefaultVADTimeout = 700 * time.Millisecond

// UtteranceHandler is invoked with the concatenated transcript of a
// completed utterance. isCloseChannelPhrase is true when the configured
// close_channel_phrase matched, meaning the caller should tear the
// connection down instead of feeding the text to the Conversation Loop.
type UtteranceHandler func(ctx context.Context, text string, isCloseChannelPhrase bool)

// Ingest accumulates PCM for one connection, gates it on VAD, and detects
// utterance boundaries via silence timeout. It carries no echo-suppression
// or multi-stream bookkeeping of its own since the wire protocol carries an
// explicit INT0 for barge-in.
type Ingest struct {
	vad         VoiceActivityDetector
	transcriber Transcriber
	closePhrase string
	timeout     time.Duration
	log         logging.Logger

	mu           sync.Mutex
	rxPaused     bool
	recording    bool
	frames       []float32
	lastVoiceTS  time.Time
	onUtterance  UtteranceHandler
	onCancelOpen func() // invoked the moment speech resumes after a barge-in
}

// NewIngest builds an Ingest bound to one connection's VAD instance
// (callers should pass a fresh Clone() per connection) and Transcriber.
// timeout <= 0 falls back to DefaultVADTimeout.
func NewIngest(vad VoiceActivityDetector, transcriber Transcriber, closePhrase string, timeout time.Duration, log logging.Logger) *Ingest {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	if timeout <= 0 {
		timeout = DefaultVADTimeout
	}
	return &Ingest{
		vad:         vad,
		transcriber: transcriber,
		closePhrase: closePhrase,
		timeout:     timeout,
		log:         log,
		frames:      make([]float32, 0, 16000),
	}
}

// SetRXGate opens or closes the receive gate; closed drops inbound frames,
// used while TTS is playing to avoid self-hearing.
func (in *Ingest) SetRXGate(open bool) {
	in.mu.Lock()
	in.rxPaused = !open
	in.mu.Unlock()
}

// OnFirstSpeechAfterBargeIn registers a callback fired the instant a frame
// is recognized as speech while recording was false — the point at which a
// barge-in's cancel latch should clear.
func (in *Ingest) OnFirstSpeechAfterBargeIn(fn func()) {
	in.mu.Lock()
	in.onCancelOpen = fn
	in.mu.Unlock()
}

// Write processes one AUD0 frame's raw little-endian int16 PCM payload.
// onUtterance is called synchronously when the frame completes an
// utterance (silence timeout or explicit Flush).
func (in *Ingest) Write(ctx context.Context, payload []byte, onUtterance UtteranceHandler) {
	in.mu.Lock()
	paused := in.rxPaused
	in.mu.Unlock()
	if paused {
		return
	}

	metrics.AudioChunksTotal.Inc()

	frame := protocol.PCMFromInt16LE(payload)
	speech := in.vad.IsSpeech(frame)
	now := time.Now()

	in.mu.Lock()
	if speech {
		if !in.recording {
			in.recording = true
			if in.onCancelOpen != nil {
				cb := in.onCancelOpen
				in.mu.Unlock()
				cb()
				in.mu.Lock()
			}
		}
		in.frames = append(in.frames, frame...)
		in.lastVoiceTS = now
		in.mu.Unlock()
		return
	}

	if !in.recording {
		in.mu.Unlock()
		return
	}

	if now.Sub(in.lastVoiceTS) <= in.timeout {
		in.mu.Unlock()
		return
	}

	buf := in.frames
	in.frames = make([]float32, 0, 16000)
	in.recording = false
	in.mu.Unlock()

	in.finishUtterance(ctx, buf, onUtterance)
}

// Flush forces end-of-utterance, used on an explicit STOP frame.
func (in *Ingest) Flush(ctx context.Context, onUtterance UtteranceHandler) {
	in.mu.Lock()
	if !in.recording && len(in.frames) == 0 {
		in.mu.Unlock()
		return
	}
	buf := in.frames
	in.frames = make([]float32, 0, 16000)
	in.recording = false
	in.mu.Unlock()

	in.finishUtterance(ctx, buf, onUtterance)
}

func (in *Ingest) finishUtterance(ctx context.Context, buf []float32, onUtterance UtteranceHandler) {
	if len(buf) == 0 {
		return
	}
	metrics.SpeechSegmentsTotal.Inc()

	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("stt"))
	segments, err := in.transcriber.Transcribe(ctx, buf)
	timer.ObserveDuration()
	if err != nil {
		in.log.Warn("transcription failed, discarding utterance", "error", err)
		return
	}

	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return
	}

	isClose := in.closePhrase != "" && strings.Contains(strings.ToLower(text), strings.ToLower(in.closePhrase))
	onUtterance(ctx, text, isClose)
}
