package voice

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurelio-voice/aurelio-server/internal/audio"
	"github.com/aurelio-voice/aurelio-server/internal/metrics"
	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

const (
	egressTargetSampleRate = 16000
	egressTargetRMS        = 0.2
	egressGain             = 1.2
	egressMaxChunkSamples  = 8192
)

// ChunkWriter writes one TTS0 payload to the wire, yielding cooperatively
// between calls so an in-flight INT0 can be observed promptly.
type ChunkWriter func(ctx context.Context, payload []byte) error

// Egress synthesizes a sentence, resamples and normalizes it, and writes it
// out in bounded chunks, honoring a session's cancel latch between chunks.
// It calls Synthesize once per sentence rather than streaming from the
// provider incrementally.
type Egress struct {
	synth Synthesizer
}

// NewEgress builds an Egress around a Synthesizer.
func NewEgress(synth Synthesizer) *Egress {
	return &Egress{synth: synth}
}

// Speak synthesizes text and writes it out as a sequence of TTS0 chunks via
// write, stopping between chunks if sess.Cancel is set.
func (e *Egress) Speak(ctx context.Context, sess *session.Session, text string, write ChunkWriter) error {
	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("tts"))
	pcm, nativeRate, err := e.synth.Synthesize(ctx, text)
	timer.ObserveDuration()
	if err != nil {
		return err
	}

	pcm = audio.Resample(pcm, nativeRate, egressTargetSampleRate)
	pcm = normalize(pcm)

	samples := protocol.PCMToInt16LE(pcm)
	const bytesPerSample = 2
	chunkBytes := egressMaxChunkSamples * bytesPerSample

	for offset := 0; offset < len(samples); offset += chunkBytes {
		if sess.Cancel.IsSet() {
			return nil
		}

		end := offset + chunkBytes
		if end > len(samples) {
			end = len(samples)
		}
		if err := write(ctx, samples[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// normalize scales pcm so its RMS matches egressTargetRMS, applies a fixed
// gain, then clips to [-1, 1].
func normalize(pcm []float32) []float32 {
	if len(pcm) == 0 {
		return pcm
	}

	var sumSquares float64
	for _, s := range pcm {
		f := float64(s)
		sumSquares += f * f
	}
	rms := math.Sqrt(sumSquares / float64(len(pcm)))
	if rms == 0 {
		return pcm
	}

	scale := float32(egressTargetRMS/rms) * egressGain
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		v := s * scale
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return out
}
