package voice

import (
	"context"
	"testing"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/protocol"
)

type scriptedVAD struct {
	speech []bool
	i      int
}

func (v *scriptedVAD) IsSpeech(frame []float32) bool {
	if v.i >= len(v.speech) {
		return false
	}
	r := v.speech[v.i]
	v.i++
	return r
}
func (v *scriptedVAD) Reset()                       { v.i = 0 }
func (v *scriptedVAD) Clone() VoiceActivityDetector { return &scriptedVAD{speech: v.speech} }

type stubTranscriber struct {
	segments []Segment
}

func (s *stubTranscriber) Transcribe(ctx context.Context, pcm []float32) ([]Segment, error) {
	return s.segments, nil
}
func (s *stubTranscriber) Name() string { return "stub" }

func silentFrame() []byte {
	return protocol.PCMToInt16LE(make([]float32, 160))
}

func loudFramePayload() []byte {
	samples := make([]float32, 160)
	for i := range samples {
		samples[i] = 0.8
	}
	return protocol.PCMToInt16LE(samples)
}

func TestIngestDropsFramesWhileRXGateClosed(t *testing.T) {
	in := NewIngest(&scriptedVAD{speech: []bool{true}}, &stubTranscriber{segments: []Segment{{Text: "hi"}}}, "", 0, nil)
	in.SetRXGate(false)

	called := false
	in.Write(context.Background(), loudFramePayload(), func(ctx context.Context, text string, isClose bool) {
		called = true
	})
	if called {
		t.Fatal("expected no utterance while RX gate is closed")
	}
}

func TestIngestEmitsUtteranceAfterSilenceTimeout(t *testing.T) {
	vad := &scriptedVAD{speech: []bool{true, false}}
	in := NewIngest(vad, &stubTranscriber{segments: []Segment{{Text: "hello "}, {Text: "world"}}}, "", 0, nil)

	in.Write(context.Background(), loudFramePayload(), nil)

	in.mu.Lock()
	in.lastVoiceTS = time.Now().Add(-DefaultVADTimeout - time.Millisecond)
	in.mu.Unlock()

	var gotText string
	var gotClose bool
	in.Write(context.Background(), silentFrame(), func(ctx context.Context, text string, isClose bool) {
		gotText = text
		gotClose = isClose
	})

	if gotText != "hello world" {
		t.Errorf("text = %q, want %q", gotText, "hello world")
	}
	if gotClose {
		t.Error("expected isClose = false")
	}
}

func TestIngestDetectsCloseChannelPhrase(t *testing.T) {
	vad := &scriptedVAD{speech: []bool{true, false}}
	in := NewIngest(vad, &stubTranscriber{segments: []Segment{{Text: "please finish conversation now"}}}, "finish conversation", 0, nil)

	in.Write(context.Background(), loudFramePayload(), nil)
	in.mu.Lock()
	in.lastVoiceTS = time.Now().Add(-DefaultVADTimeout - time.Millisecond)
	in.mu.Unlock()

	var gotClose bool
	in.Write(context.Background(), silentFrame(), func(ctx context.Context, text string, isClose bool) {
		gotClose = isClose
	})
	if !gotClose {
		t.Error("expected close_channel_phrase to be detected")
	}
}

func TestIngestFirstSpeechAfterBargeInClearsCancel(t *testing.T) {
	vad := &scriptedVAD{speech: []bool{true}}
	in := NewIngest(vad, &stubTranscriber{}, "", 0, nil)

	cleared := false
	in.OnFirstSpeechAfterBargeIn(func() { cleared = true })

	in.Write(context.Background(), loudFramePayload(), nil)
	if !cleared {
		t.Error("expected OnFirstSpeechAfterBargeIn callback to fire on first speech frame")
	}
}

func TestIngestFlushForcesEndOfUtterance(t *testing.T) {
	vad := &scriptedVAD{speech: []bool{true}}
	in := NewIngest(vad, &stubTranscriber{segments: []Segment{{Text: "partial"}}}, "", 0, nil)

	in.Write(context.Background(), loudFramePayload(), nil)

	var gotText string
	in.Flush(context.Background(), func(ctx context.Context, text string, isClose bool) {
		gotText = text
	})
	if gotText != "partial" {
		t.Errorf("text = %q, want %q", gotText, "partial")
	}
}
