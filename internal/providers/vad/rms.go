// Package vad provides the default VoiceActivityDetector, a threshold-based
// classifier over per-frame RMS energy.
package vad

import (
	"math"

	"github.com/aurelio-voice/aurelio-server/internal/voice"
)

// RMSVAD classifies a frame as speech by comparing its root-mean-square
// energy against a threshold, requiring a run of consecutive frames above
// threshold before reporting speech start so brief spikes and echo-onset
// pops don't flip the detector.
type RMSVAD struct {
	threshold    float64
	minConfirmed int

	consecutive int
	confirmed   bool
	lastRMS     float64
}

// NewRMSVAD returns an RMSVAD with the given energy threshold. minConfirmed
// is the number of consecutive above-threshold frames required before
// IsSpeech reports true; 7 is roughly 70-100ms of continuous sound at
// typical frame sizes.
func NewRMSVAD(threshold float64) *RMSVAD {
	return &RMSVAD{threshold: threshold, minConfirmed: 7}
}

// SetMinConfirmed overrides the consecutive-frame confirmation count.
func (v *RMSVAD) SetMinConfirmed(count int) {
	v.minConfirmed = count
}

// Threshold returns the current RMS threshold.
func (v *RMSVAD) Threshold() float64 {
	return v.threshold
}

// SetThreshold updates the RMS threshold.
func (v *RMSVAD) SetThreshold(threshold float64) {
	v.threshold = threshold
}

// LastRMS returns the RMS of the last frame passed to IsSpeech.
func (v *RMSVAD) LastRMS() float64 {
	return v.lastRMS
}

func (v *RMSVAD) IsSpeech(frame []float32) bool {
	rms := calculateRMS(frame)
	v.lastRMS = rms

	if rms <= v.threshold {
		v.consecutive = 0
		v.confirmed = false
		return false
	}

	v.consecutive++
	if !v.confirmed {
		if v.consecutive >= v.minConfirmed {
			v.confirmed = true
		} else {
			return false
		}
	}
	return true
}

func (v *RMSVAD) Reset() {
	v.consecutive = 0
	v.confirmed = false
	v.lastRMS = 0
}

func (v *RMSVAD) Clone() voice.VoiceActivityDetector {
	return &RMSVAD{threshold: v.threshold, minConfirmed: v.minConfirmed}
}

func calculateRMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame)))
}
