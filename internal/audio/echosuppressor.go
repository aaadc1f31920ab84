package audio

import (
	"bytes"
	"math"
	"sync"
	"time"
)

// EchoSuppressor classifies microphone input as speaker echo by correlating
// it against recently played audio, for satsim's duplex mic+speaker loop.
// It only covers the realtime correlation path: a socket-based satellite
// just needs a yes/no gate on whether to forward a frame, not an offline
// frame-muting pass.
type EchoSuppressor struct {
	mu            sync.Mutex
	playedAudio   *bytes.Buffer
	maxBufSize    int
	echoThreshold float64
	echoSilence   time.Duration
	lastPlayedAt  time.Time
}

// NewEchoSuppressor returns a suppressor tuned for 16kHz mono S16LE audio.
func NewEchoSuppressor() *EchoSuppressor {
	return &EchoSuppressor{
		playedAudio:   new(bytes.Buffer),
		maxBufSize:    64000, // ~2s at 16kHz, 16-bit mono
		echoThreshold: 0.55,
		echoSilence:   1200 * time.Millisecond,
	}
}

// RecordPlayed appends audio just sent to the speaker to the reference
// buffer, trimming it to maxBufSize.
func (es *EchoSuppressor) RecordPlayed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	es.playedAudio.Write(chunk)
	es.lastPlayedAt = time.Now()

	if es.playedAudio.Len() > es.maxBufSize {
		data := es.playedAudio.Bytes()
		trim := data[len(data)-es.maxBufSize:]
		es.playedAudio.Reset()
		es.playedAudio.Write(trim)
	}
}

// IsEcho reports whether input correlates highly enough with recently
// played audio to be speaker bleed rather than the user's own voice.
func (es *EchoSuppressor) IsEcho(input []byte) bool {
	if len(input) == 0 {
		return false
	}

	es.mu.Lock()
	if time.Since(es.lastPlayedAt) > es.echoSilence {
		es.mu.Unlock()
		return false
	}
	played := make([]byte, es.playedAudio.Len())
	copy(played, es.playedAudio.Bytes())
	threshold := es.echoThreshold
	es.mu.Unlock()

	if len(played) == 0 {
		return false
	}
	in, ref := bytesToSamples(input), bytesToSamples(played)
	minEnd := len(in)
	if minEnd > len(ref) {
		minEnd = len(ref)
	}
	// Slide the reference's end back one sample at a time so speaker output
	// that reaches the mic some time after it was played still lines up.
	for end := len(ref); end >= minEnd; end-- {
		if correlate(in, ref[:end]) > threshold {
			return true
		}
	}
	return false
}

// Clear drops the reference buffer, called after a barge-in so stale
// playback doesn't suppress the user's interrupting speech.
func (es *EchoSuppressor) Clear() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.playedAudio.Reset()
}

// correlate returns the normalized cross-correlation between input and the
// trailing portion of reference matching input's length, clamped to [0, 1].
// IsEcho covers speaker-to-mic latency by calling it for each candidate end
// of the reference buffer.
func correlate(input, reference []float64) float64 {
	if len(input) == 0 || len(reference) == 0 {
		return 0
	}
	compareLen := len(input)
	if compareLen > len(reference) {
		compareLen = len(reference)
	}
	refTail := reference[len(reference)-compareLen:]

	inputEnergy := energy(input[:compareLen])
	refEnergy := energy(refTail)
	if inputEnergy == 0 || refEnergy == 0 {
		return 0
	}

	dot := 0.0
	for i := 0; i < compareLen; i++ {
		dot += input[i] * refTail[i]
	}

	corr := dot / math.Sqrt(inputEnergy*refEnergy)
	if corr < 0 {
		return 0
	}
	if corr > 1 {
		return 1
	}
	return corr
}

func energy(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return sum
}

func bytesToSamples(data []byte) []float64 {
	samples := make([]float64, 0, len(data)/2)
	for i := 0; i < len(data)-1; i += 2 {
		sample := int16(data[i]) | (int16(data[i+1]) << 8)
		samples = append(samples, float64(sample)/32768.0)
	}
	return samples
}
