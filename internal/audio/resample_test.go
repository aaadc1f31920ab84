package audio

import "testing"

func TestResampleNoOpWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
}

func TestResampleDownsamplesToFewerSamples(t *testing.T) {
	in := make([]float32, 480) // 30ms @ 16kHz
	for i := range in {
		in[i] = float32(i) / 480
	}
	out := Resample(in, 16000, 8000)
	if len(out) >= len(in) {
		t.Fatalf("downsample len = %d, want fewer than %d", len(out), len(in))
	}
}

func TestResampleUpsamplesToMoreSamples(t *testing.T) {
	in := make([]float32, 240) // 10ms @ 24kHz
	out := Resample(in, 24000, 48000)
	if len(out) <= len(in) {
		t.Fatalf("upsample len = %d, want more than %d", len(out), len(in))
	}
}
